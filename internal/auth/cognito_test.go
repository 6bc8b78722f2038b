package auth

import (
	"context"
	"errors"
	"testing"

	"lifeshare/pkg/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	ctypes "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCognito struct {
	signUpInput *cognitoidentityprovider.SignUpInput
	signUpErr   error
	userSub     string

	confirmErr error

	authInput *cognitoidentityprovider.InitiateAuthInput
	authOut   *cognitoidentityprovider.InitiateAuthOutput
	authErr   error

	signOutErr error
	signedOut  []string
}

func (f *fakeCognito) SignUp(_ context.Context, in *cognitoidentityprovider.SignUpInput, _ ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.SignUpOutput, error) {
	f.signUpInput = in
	if f.signUpErr != nil {
		return nil, f.signUpErr
	}
	return &cognitoidentityprovider.SignUpOutput{UserSub: aws.String(f.userSub)}, nil
}

func (f *fakeCognito) ConfirmSignUp(_ context.Context, _ *cognitoidentityprovider.ConfirmSignUpInput, _ ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.ConfirmSignUpOutput, error) {
	if f.confirmErr != nil {
		return nil, f.confirmErr
	}
	return &cognitoidentityprovider.ConfirmSignUpOutput{}, nil
}

func (f *fakeCognito) InitiateAuth(_ context.Context, in *cognitoidentityprovider.InitiateAuthInput, _ ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.InitiateAuthOutput, error) {
	f.authInput = in
	if f.authErr != nil {
		return nil, f.authErr
	}
	return f.authOut, nil
}

func (f *fakeCognito) GlobalSignOut(_ context.Context, in *cognitoidentityprovider.GlobalSignOutInput, _ ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.GlobalSignOutOutput, error) {
	if f.signOutErr != nil {
		return nil, f.signOutErr
	}
	f.signedOut = append(f.signedOut, aws.ToString(in.AccessToken))
	return &cognitoidentityprovider.GlobalSignOutOutput{}, nil
}

func TestRegisterReturnsUserSub(t *testing.T) {
	client := &fakeCognito{userSub: "sub-123"}
	provider := NewCognitoProvider(client, "client-id")

	id, err := provider.Register(context.Background(), "donor@example.com", "Str0ng!Password")
	require.NoError(t, err)

	assert.Equal(t, "sub-123", id)
	assert.Equal(t, "client-id", aws.ToString(client.signUpInput.ClientId))
	assert.Equal(t, "donor@example.com", aws.ToString(client.signUpInput.Username))
}

func TestRegisterErrorMapping(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantField string
	}{
		{name: "invalid password", err: &ctypes.InvalidPasswordException{Message: aws.String("weak")}, wantField: "password"},
		{name: "user exists", err: &ctypes.UsernameExistsException{Message: aws.String("exists")}, wantField: "email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := NewCognitoProvider(&fakeCognito{signUpErr: tt.err}, "client-id")

			_, err := provider.Register(context.Background(), "donor@example.com", "x")
			require.ErrorIs(t, err, types.ErrValidation)

			var fieldErrs types.FieldErrors
			require.ErrorAs(t, err, &fieldErrs)
			assert.Contains(t, fieldErrs, tt.wantField)
		})
	}

	t.Run("invalid parameter", func(t *testing.T) {
		provider := NewCognitoProvider(&fakeCognito{signUpErr: &ctypes.InvalidParameterException{Message: aws.String("bad")}}, "client-id")
		_, err := provider.Register(context.Background(), "donor@example.com", "x")
		require.ErrorIs(t, err, types.ErrValidation)
	})

	t.Run("unexpected", func(t *testing.T) {
		provider := NewCognitoProvider(&fakeCognito{signUpErr: errors.New("throttled")}, "client-id")
		_, err := provider.Register(context.Background(), "donor@example.com", "x")
		require.ErrorIs(t, err, types.ErrBackendUnavailable)
	})
}

func TestConfirmCodeMismatch(t *testing.T) {
	provider := NewCognitoProvider(&fakeCognito{confirmErr: &ctypes.CodeMismatchException{Message: aws.String("nope")}}, "client-id")

	err := provider.Confirm(context.Background(), "donor@example.com", "000000")
	require.ErrorIs(t, err, types.ErrValidation)

	var verr *types.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "code", verr.Field)
}

func TestLogin(t *testing.T) {
	client := &fakeCognito{authOut: &cognitoidentityprovider.InitiateAuthOutput{
		AuthenticationResult: &ctypes.AuthenticationResultType{
			AccessToken: aws.String("access"),
			ExpiresIn:   3600,
		},
	}}
	provider := NewCognitoProvider(client, "client-id")

	token, err := provider.Login(context.Background(), "donor@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, &Token{AccessToken: "access", ExpiresIn: 3600}, token)
	assert.Equal(t, ctypes.AuthFlowTypeUserPasswordAuth, client.authInput.AuthFlow)
	assert.Equal(t, "donor@example.com", client.authInput.AuthParameters["USERNAME"])
}

func TestLoginErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "bad password", err: &ctypes.NotAuthorizedException{Message: aws.String("x")}, want: types.ErrInvalidCredentials},
		{name: "unknown user", err: &ctypes.UserNotFoundException{Message: aws.String("x")}, want: types.ErrInvalidCredentials},
		{name: "unconfirmed", err: &ctypes.UserNotConfirmedException{Message: aws.String("x")}, want: types.ErrUserNotConfirmed},
		{name: "outage", err: errors.New("timeout"), want: types.ErrBackendUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := NewCognitoProvider(&fakeCognito{authErr: tt.err}, "client-id")
			_, err := provider.Login(context.Background(), "donor@example.com", "pw")
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("missing token", func(t *testing.T) {
		provider := NewCognitoProvider(&fakeCognito{authOut: &cognitoidentityprovider.InitiateAuthOutput{}}, "client-id")
		_, err := provider.Login(context.Background(), "donor@example.com", "pw")
		assert.ErrorIs(t, err, types.ErrInvalidCredentials)
	})
}

func TestLogout(t *testing.T) {
	client := &fakeCognito{}
	provider := NewCognitoProvider(client, "client-id")

	require.NoError(t, provider.Logout(context.Background(), "access"))
	assert.Equal(t, []string{"access"}, client.signedOut)

	client.signOutErr = &ctypes.NotAuthorizedException{Message: aws.String("revoked")}
	assert.NoError(t, provider.Logout(context.Background(), "access"))
}

func TestCognitoJWKSURL(t *testing.T) {
	assert.Equal(t,
		"https://cognito-idp.ap-south-1.amazonaws.com/pool/.well-known/jwks.json",
		JWKSURL("https://cognito-idp.ap-south-1.amazonaws.com/pool"),
	)
}
