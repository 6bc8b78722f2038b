// Package auth signs users up, in and out against Cognito and verifies the
// access tokens it issues.
package auth

import (
	"context"
	"errors"
	"fmt"

	"lifeshare/pkg/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	ctypes "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
)

// Token is an access token and its lifetime in seconds.
type Token struct {
	AccessToken string
	ExpiresIn   int
}

// CognitoAPI is the subset of the Cognito client the provider calls.
type CognitoAPI interface {
	SignUp(ctx context.Context, params *cognitoidentityprovider.SignUpInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.SignUpOutput, error)
	ConfirmSignUp(ctx context.Context, params *cognitoidentityprovider.ConfirmSignUpInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.ConfirmSignUpOutput, error)
	InitiateAuth(ctx context.Context, params *cognitoidentityprovider.InitiateAuthInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.InitiateAuthOutput, error)
	GlobalSignOut(ctx context.Context, params *cognitoidentityprovider.GlobalSignOutInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.GlobalSignOutOutput, error)
}

type CognitoProvider struct {
	client   CognitoAPI
	clientID string
}

func NewCognitoProvider(client CognitoAPI, clientID string) *CognitoProvider {
	return &CognitoProvider{client: client, clientID: clientID}
}

// Register signs the email up and returns the Cognito subject, which becomes
// the directory user id.
func (p *CognitoProvider) Register(ctx context.Context, email, password string) (string, error) {
	input := &cognitoidentityprovider.SignUpInput{
		ClientId: aws.String(p.clientID),
		Username: aws.String(email), // use email as username
		Password: aws.String(password),
		UserAttributes: []ctypes.AttributeType{
			{Name: aws.String("email"), Value: aws.String(email)},
		},
	}

	resp, err := p.client.SignUp(ctx, input)
	if err != nil {
		return "", mapSignUpError(err)
	}

	userID := aws.ToString(resp.UserSub)
	if userID == "" {
		return "", fmt.Errorf("signup returned no user sub: %w", types.ErrBackendUnavailable)
	}

	return userID, nil
}

func (p *CognitoProvider) Confirm(ctx context.Context, email, code string) error {
	input := &cognitoidentityprovider.ConfirmSignUpInput{
		ClientId:         aws.String(p.clientID),
		Username:         aws.String(email),
		ConfirmationCode: aws.String(code),
	}

	_, err := p.client.ConfirmSignUp(ctx, input)
	if err == nil {
		return nil
	}

	var codeMismatch *ctypes.CodeMismatchException
	if errors.As(err, &codeMismatch) {
		return &types.ValidationError{Field: "code", Message: "Invalid confirmation code. Please check the code and try again."}
	}

	var expired *ctypes.ExpiredCodeException
	if errors.As(err, &expired) {
		return &types.ValidationError{Field: "code", Message: "This confirmation code has expired."}
	}

	return fmt.Errorf("failed to confirm signup: %w: %w", types.ErrBackendUnavailable, err)
}

func (p *CognitoProvider) Login(ctx context.Context, email, password string) (*Token, error) {
	input := &cognitoidentityprovider.InitiateAuthInput{
		AuthFlow: ctypes.AuthFlowTypeUserPasswordAuth,
		ClientId: aws.String(p.clientID),
		AuthParameters: map[string]string{
			"USERNAME": email,
			"PASSWORD": password,
		},
	}

	resp, err := p.client.InitiateAuth(ctx, input)
	if err != nil {
		var notConfirmed *ctypes.UserNotConfirmedException
		if errors.As(err, &notConfirmed) {
			return nil, types.ErrUserNotConfirmed
		}

		var notAuthorized *ctypes.NotAuthorizedException
		var notFound *ctypes.UserNotFoundException
		if errors.As(err, &notAuthorized) || errors.As(err, &notFound) {
			return nil, types.ErrInvalidCredentials
		}

		return nil, fmt.Errorf("failed to initiate auth: %w: %w", types.ErrBackendUnavailable, err)
	}

	if resp.AuthenticationResult == nil || resp.AuthenticationResult.AccessToken == nil {
		return nil, types.ErrInvalidCredentials
	}

	return &Token{
		AccessToken: aws.ToString(resp.AuthenticationResult.AccessToken),
		ExpiresIn:   int(resp.AuthenticationResult.ExpiresIn),
	}, nil
}

// Logout revokes every token issued for the user owning accessToken.
func (p *CognitoProvider) Logout(ctx context.Context, accessToken string) error {
	_, err := p.client.GlobalSignOut(ctx, &cognitoidentityprovider.GlobalSignOutInput{
		AccessToken: aws.String(accessToken),
	})
	if err != nil {
		var notAuthorized *ctypes.NotAuthorizedException
		if errors.As(err, &notAuthorized) {
			// already revoked or expired
			return nil
		}
		return fmt.Errorf("failed to sign out: %w: %w", types.ErrBackendUnavailable, err)
	}

	return nil
}

func mapSignUpError(err error) error {
	var invalidPw *ctypes.InvalidPasswordException
	if errors.As(err, &invalidPw) {
		return types.FieldErrors{"password": "Password must include uppercase, lowercase, number, and symbol (min 12)."}
	}

	var userExists *ctypes.UsernameExistsException
	if errors.As(err, &userExists) {
		return types.FieldErrors{"email": "An account with this email already exists."}
	}

	var invalidParam *ctypes.InvalidParameterException
	if errors.As(err, &invalidParam) {
		return &types.ValidationError{Message: "Some details are invalid. Please review and try again."}
	}

	return fmt.Errorf("failed to sign up: %w: %w", types.ErrBackendUnavailable, err)
}
