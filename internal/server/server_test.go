package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"lifeshare/internal"
	"lifeshare/internal/auth"
	"lifeshare/internal/directory"
	"lifeshare/internal/storage"
	"lifeshare/internal/store"
	"lifeshare/internal/utils"
	"lifeshare/pkg/types"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/time/rate"
)

const testPassword = "Str0ng!Password"

type ServerSuite struct {
	suite.Suite
	ctx      context.Context
	store    *store.MemoryStore
	blobs    *storage.MemoryStorage
	provider *auth.MemoryProvider
	service  *Service
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerSuite))
}

func testConfig() *types.Config {
	return &types.Config{
		Environment:         "test",
		ServerPort:          0,
		ReadTimeoutSec:      5,
		WriteTimeoutSec:     5,
		MaxUploadSizeBytes:  5 << 20,
		AuthRateLimitPerMin: 10,
		AuthRateLimitBurst:  5,
		CookieHashKey:       base64.StdEncoding.EncodeToString(bytes.Repeat([]byte("h"), 32)),
		CookieBlockKey:      base64.StdEncoding.EncodeToString(bytes.Repeat([]byte("b"), 32)),
	}
}

func (s *ServerSuite) SetupTest() {
	s.ctx = context.Background()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	s.store = store.NewMemoryStore()
	s.blobs = storage.NewMemoryStorage("/uploads")
	s.provider = auth.NewMemoryProvider()

	dir := directory.New(s.store, s.store, s.blobs, logger)

	service, err := New(testConfig(), logger, dir, s.provider, s.provider, s.blobs)
	s.Require().NoError(err)
	s.service = service
}

func (s *ServerSuite) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.service.Handler().ServeHTTP(rec, req)
	return rec
}

func (s *ServerSuite) postForm(path string, values url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return s.do(req)
}

func (s *ServerSuite) get(path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return s.do(req)
}

// signIn creates a confirmed account with a directory record and returns its
// id and a session cookie.
func (s *ServerSuite) signIn(email string, role types.Role) (string, *http.Cookie) {
	userID, err := s.provider.Register(s.ctx, email, testPassword)
	s.Require().NoError(err)
	s.Require().NoError(s.provider.Confirm(s.ctx, email, "123456"))
	s.Require().NoError(s.store.Create(s.ctx, &types.DonorProfile{ID: userID, Role: role, Email: utils.StringPtr(email)}))

	token, err := s.provider.Login(s.ctx, email, testPassword)
	s.Require().NoError(err)

	value, err := s.service.cookie.Encode(internal.COOKIE_ACCESS_TOKEN_NAME, token.AccessToken)
	s.Require().NoError(err)

	return userID, &http.Cookie{Name: internal.COOKIE_ACCESS_TOKEN_NAME, Value: value}
}

func (s *ServerSuite) seedDonor(name, district string, group types.BloodGroup) string {
	last := time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)
	profile := &types.DonorProfile{
		FullName:       name,
		Age:            30,
		Phone:          "01711223344",
		City:           district,
		District:       district,
		BloodGroup:     group,
		LastDonateDate: &last,
	}
	s.Require().NoError(s.store.Create(s.ctx, profile))
	return profile.ID
}

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func (s *ServerSuite) TestHealthz() {
	rec := s.get("/healthz")
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("ok", rec.Body.String())
}

func (s *ServerSuite) TestHomeShowsSiteConfig() {
	rec := s.get("/")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), types.DefaultHeroQuote)
	s.Contains(rec.Body.String(), "https://wa.me/880")
}

func (s *ServerSuite) TestStripTrailingSlash() {
	rec := s.get("/donors/?district=x")
	s.Equal(http.StatusMovedPermanently, rec.Code)
	s.Equal("/donors?district=x", rec.Header().Get("Location"))
}

func (s *ServerSuite) TestDonorsFilter() {
	s.seedDonor("Rahim Uddin", "ঢাকা", types.BloodGroupAPos)
	s.seedDonor("Karim Mia", "সিলেট", types.BloodGroupONeg)

	rec := s.get("/donors")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "Rahim Uddin")
	s.Contains(rec.Body.String(), "Karim Mia")
	s.Contains(rec.Body.String(), "2 donors found")

	v := url.Values{}
	v.Set("district", "সিলেট")
	rec = s.get("/donors?" + v.Encode())
	s.Require().Equal(http.StatusOK, rec.Code)
	s.NotContains(rec.Body.String(), "Rahim Uddin")
	s.Contains(rec.Body.String(), "Karim Mia")
	s.Contains(rec.Body.String(), "1 donor found")
	s.Contains(rec.Body.String(), "Eligible to donate")
}

func (s *ServerSuite) TestProfileRequiresLogin() {
	rec := s.get("/profile")
	s.Equal(http.StatusSeeOther, rec.Code)
	s.Equal("/login", rec.Header().Get("Location"))

	redirect := cookieNamed(rec, internal.COOKIE_REDIRECT_NAME)
	s.Require().NotNil(redirect)
	s.Equal("/profile", redirect.Value)
}

func (s *ServerSuite) TestInvalidTokenIsDropped() {
	rec := s.get("/", &http.Cookie{Name: internal.COOKIE_ACCESS_TOKEN_NAME, Value: "garbage"})
	s.Equal(http.StatusOK, rec.Code)
}

func (s *ServerSuite) TestRevokedTokenClearsCookie() {
	value, err := s.service.cookie.Encode(internal.COOKIE_ACCESS_TOKEN_NAME, "revoked-token")
	s.Require().NoError(err)

	rec := s.get("/", &http.Cookie{Name: internal.COOKIE_ACCESS_TOKEN_NAME, Value: value})
	s.Equal(http.StatusOK, rec.Code)

	cleared := cookieNamed(rec, internal.COOKIE_ACCESS_TOKEN_NAME)
	s.Require().NotNil(cleared)
	s.Empty(cleared.Value)
}

type unavailableVerifier struct{}

func (unavailableVerifier) Verify(context.Context, string) (types.Session, error) {
	return types.Session{}, fmt.Errorf("failed to fetch JWKS: %w: %w", types.ErrBackendUnavailable, errors.New("connection refused"))
}

func (s *ServerSuite) TestVerifierOutageKeepsSession() {
	_, cookie := s.signIn("admin@example.com", types.RoleAdmin)

	s.service.verifier = unavailableVerifier{}
	rec := s.get("/admin", cookie)
	s.Equal(http.StatusServiceUnavailable, rec.Code)
	s.Nil(cookieNamed(rec, internal.COOKIE_ACCESS_TOKEN_NAME))
	s.Empty(rec.Header().Get("Location"))

	s.service.verifier = s.provider
	rec = s.get("/admin", cookie)
	s.Equal(http.StatusOK, rec.Code)
}

func (s *ServerSuite) TestAdminRejectsDonor() {
	_, cookie := s.signIn("donor@example.com", types.RoleDonor)

	rec := s.get("/admin", cookie)
	s.Equal(http.StatusForbidden, rec.Code)

	target := s.seedDonor("Karim Mia", "সিলেট", types.BloodGroupONeg)
	rec = s.postForm("/admin/donors/"+target+"/promote", url.Values{}, cookie)
	s.Equal(http.StatusForbidden, rec.Code)

	profile, err := s.store.User(s.ctx, target)
	s.Require().NoError(err)
	s.Equal(types.RoleDonor, profile.Role)

	rec = s.postForm("/admin/config", url.Values{"hero_quote": {"x"}, "whatsapp_number": {"+8801711223344"}}, cookie)
	s.Equal(http.StatusForbidden, rec.Code)
}

func (s *ServerSuite) TestAdminDashboardAndActions() {
	_, cookie := s.signIn("admin@example.com", types.RoleAdmin)
	promoted := s.seedDonor("Rahim Uddin", "ঢাকা", types.BloodGroupAPos)
	deleted := s.seedDonor("Karim Mia", "সিলেট", types.BloodGroupONeg)

	rec := s.get("/admin", cookie)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "Rahim Uddin")
	s.Contains(rec.Body.String(), "Karim Mia")

	rec = s.postForm("/admin/donors/"+promoted+"/promote", url.Values{}, cookie)
	s.Equal(http.StatusSeeOther, rec.Code)
	profile, err := s.store.User(s.ctx, promoted)
	s.Require().NoError(err)
	s.Equal(types.RoleAdmin, profile.Role)

	rec = s.postForm("/admin/donors/"+deleted+"/delete", url.Values{}, cookie)
	s.Equal(http.StatusSeeOther, rec.Code)
	_, err = s.store.User(s.ctx, deleted)
	s.ErrorIs(err, types.ErrUserNotFound)

	rec = s.postForm("/admin/donors/ghost/delete", url.Values{}, cookie)
	s.Equal(http.StatusSeeOther, rec.Code)
	s.Contains(rec.Header().Get("Location"), "error=")
}

func (s *ServerSuite) TestAdminConfigUpdate() {
	_, cookie := s.signIn("admin@example.com", types.RoleAdmin)

	rec := s.postForm("/admin/config", url.Values{"hero_quote": {""}, "whatsapp_number": {"nope"}}, cookie)
	s.Require().Equal(http.StatusUnprocessableEntity, rec.Code)
	s.Contains(rec.Body.String(), "Hero quote is required.")

	rec = s.postForm("/admin/config", url.Values{"hero_quote": {"Give blood, give life"}, "whatsapp_number": {"+8801711223344"}}, cookie)
	s.Require().Equal(http.StatusSeeOther, rec.Code)

	rec = s.get("/")
	s.Contains(rec.Body.String(), "Give blood, give life")
	s.Contains(rec.Body.String(), "https://wa.me/8801711223344")
}

func (s *ServerSuite) TestAdminEditDonor() {
	_, cookie := s.signIn("admin@example.com", types.RoleAdmin)
	target := s.seedDonor("Rahim Uddin", "ঢাকা", types.BloodGroupAPos)

	rec := s.get("/admin/donors/"+target+"/edit", cookie)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "Edit Rahim Uddin")

	form := url.Values{
		"full_name":        {"Rahim Uddin Khan"},
		"age":              {"31"},
		"phone":            {"01711223344"},
		"city":             {"ঢাকা"},
		"district":         {"ঢাকা"},
		"blood_group":      {"A+"},
		"last_donate_date": {"2024-02-01"},
	}
	rec = s.postForm("/admin/donors/"+target+"/edit", form, cookie)
	s.Require().Equal(http.StatusSeeOther, rec.Code)
	s.True(strings.HasPrefix(rec.Header().Get("Location"), "/admin"))

	profile, err := s.store.User(s.ctx, target)
	s.Require().NoError(err)
	s.Equal("Rahim Uddin Khan", profile.FullName)
	s.Equal(types.RoleDonor, profile.Role)

	rec = s.get("/admin/donors/ghost/edit", cookie)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *ServerSuite) TestRegisterConfirmLoginFlow() {
	rec := s.postForm("/register", url.Values{
		"email":            {"new@example.com"},
		"password":         {testPassword},
		"confirm_password": {testPassword},
	})
	s.Require().Equal(http.StatusSeeOther, rec.Code)
	s.Equal("/register/confirm?email=new%40example.com", rec.Header().Get("Location"))

	rec = s.postForm("/login", url.Values{"email": {"new@example.com"}, "password": {testPassword}})
	s.Require().Equal(http.StatusSeeOther, rec.Code)
	s.Contains(rec.Header().Get("Location"), "/register/confirm")

	rec = s.postForm("/register/confirm", url.Values{"email": {"new@example.com"}, "code": {"123456"}})
	s.Require().Equal(http.StatusSeeOther, rec.Code)
	s.Contains(rec.Header().Get("Location"), "confirmed=true")

	rec = s.postForm("/login", url.Values{"email": {"new@example.com"}, "password": {"wrong"}})
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Contains(rec.Body.String(), "Invalid email or password.")

	rec = s.postForm("/login", url.Values{"email": {"new@example.com"}, "password": {testPassword}})
	s.Require().Equal(http.StatusSeeOther, rec.Code)
	s.Equal("/profile", rec.Header().Get("Location"))

	cookie := cookieNamed(rec, internal.COOKIE_ACCESS_TOKEN_NAME)
	s.Require().NotNil(cookie)

	rec = s.get("/profile", cookie)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "Complete your donor profile")

	rec = s.postForm("/logout", url.Values{}, cookie)
	s.Require().Equal(http.StatusSeeOther, rec.Code)
	cleared := cookieNamed(rec, internal.COOKIE_ACCESS_TOKEN_NAME)
	s.Require().NotNil(cleared)
	s.Equal(-1, cleared.MaxAge)

	rec = s.get("/profile", cookie)
	s.Equal(http.StatusSeeOther, rec.Code)
}

func (s *ServerSuite) TestLoginCreatesMissingDirectoryRecord() {
	// signed up at the provider, but the directory write never happened
	userID, err := s.provider.Register(s.ctx, "late@example.com", testPassword)
	s.Require().NoError(err)
	s.Require().NoError(s.provider.Confirm(s.ctx, "late@example.com", "123456"))

	rec := s.postForm("/login", url.Values{"email": {"late@example.com"}, "password": {testPassword}})
	s.Require().Equal(http.StatusSeeOther, rec.Code)
	s.Equal("/profile", rec.Header().Get("Location"))

	profile, err := s.store.User(s.ctx, userID)
	s.Require().NoError(err)
	s.Equal(types.RoleDonor, profile.Role)
	s.Equal("late@example.com", utils.PtrString(profile.Email))
}

func (s *ServerSuite) TestRegisterValidation() {
	rec := s.postForm("/register", url.Values{
		"email":            {"bad"},
		"password":         {"short"},
		"confirm_password": {"other"},
	})
	s.Equal(http.StatusUnprocessableEntity, rec.Code)
	s.Contains(rec.Body.String(), "Enter a valid email address.")
	s.Contains(rec.Body.String(), "Passwords do not match.")
}

func (s *ServerSuite) TestLoginRedirectsToSavedPath() {
	_, err := s.provider.Register(s.ctx, "admin@example.com", testPassword)
	s.Require().NoError(err)
	s.Require().NoError(s.provider.Confirm(s.ctx, "admin@example.com", "1"))

	redirect := &http.Cookie{Name: internal.COOKIE_REDIRECT_NAME, Value: "/donors"}
	rec := s.postForm("/login", url.Values{"email": {"admin@example.com"}, "password": {testPassword}}, redirect)
	s.Require().Equal(http.StatusSeeOther, rec.Code)
	s.Equal("/donors", rec.Header().Get("Location"))
}

func (s *ServerSuite) TestSubmitProfileWithPhoto() {
	userID, cookie := s.signIn("donor@example.com", types.RoleDonor)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fields := map[string]string{
		"full_name":        "Nusrat Jahan",
		"age":              "27",
		"phone":            "01711223344",
		"city":             "ঢাকা",
		"district":         "ঢাকা",
		"blood_group":      "O+",
		"last_donate_date": "2024-03-01",
	}
	for k, v := range fields {
		s.Require().NoError(mw.WriteField(k, v))
	}
	part, err := mw.CreateFormFile("profile_photo", "me.png")
	s.Require().NoError(err)
	_, err = part.Write(append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...))
	s.Require().NoError(err)
	s.Require().NoError(mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/profile", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.AddCookie(cookie)

	rec := s.do(req)
	s.Require().Equal(http.StatusSeeOther, rec.Code)
	s.True(strings.HasPrefix(rec.Header().Get("Location"), "/?notice="))

	profile, err := s.store.User(s.ctx, userID)
	s.Require().NoError(err)
	s.True(profile.IsComplete())
	s.Equal("/uploads/profiles/"+userID, utils.PtrString(profile.ProfilePhoto))

	rec = s.get("/uploads/profiles/" + userID)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal("image/png", rec.Header().Get("Content-Type"))
}

func (s *ServerSuite) TestSubmitProfileValidationErrors() {
	_, cookie := s.signIn("donor@example.com", types.RoleDonor)

	rec := s.postForm("/profile", url.Values{"full_name": {"Nusrat"}, "age": {"12"}}, cookie)
	s.Require().Equal(http.StatusUnprocessableEntity, rec.Code)
	s.Contains(rec.Body.String(), "Donors must be between 18 and 65 years old.")
	s.Contains(rec.Body.String(), "Blood group is required.")
	s.Contains(rec.Body.String(), `value="Nusrat"`)
}

func (s *ServerSuite) TestAuthRateLimit() {
	form := url.Values{"email": {"x@example.com"}, "password": {"nope"}}

	for range testConfig().AuthRateLimitBurst {
		rec := s.postForm("/login", form)
		s.Require().Equal(http.StatusUnauthorized, rec.Code)
	}

	rec := s.postForm("/login", form)
	s.Equal(http.StatusTooManyRequests, rec.Code)

	rec = s.get("/login")
	s.Equal(http.StatusOK, rec.Code)
}

func (s *ServerSuite) TestMetricsEndpoint() {
	s.get("/healthz")

	rec := s.get("/metrics")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `http_requests_total{method="GET",path="/healthz",status="200"} 1`)
}

func TestWhatsAppLink(t *testing.T) {
	assert.Equal(t, "https://wa.me/8801711223344", whatsAppLink("+880 1711-223344"))
	assert.Equal(t, "https://wa.me/01711", whatsAppLink("০১৭১১"))
	assert.Equal(t, "", whatsAppLink("call me"))
	assert.Equal(t, "", whatsAppLink(""))
}

func TestRouteLabel(t *testing.T) {
	assert.Equal(t, "/admin/donors/:id/promote", routeLabel("/admin/donors/abc/promote"))
	assert.Equal(t, "/static", routeLabel("/static/css/app.css"))
	assert.Equal(t, "/uploads", routeLabel("/uploads/profiles/abc"))
	assert.Equal(t, "/donors", routeLabel("/donors"))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{types.ErrUserNotFound, http.StatusNotFound},
		{types.ErrPermissionDenied, http.StatusForbidden},
		{types.FieldErrors{"age": "bad"}, http.StatusUnprocessableEntity},
		{types.ErrBackendUnavailable, http.StatusServiceUnavailable},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		status, _ := statusFor(tt.err)
		assert.Equal(t, tt.status, status, tt.err.Error())
	}
}

func TestSafeRedirectPath(t *testing.T) {
	require.True(t, safeRedirectPath("/profile"))
	require.False(t, safeRedirectPath("//evil.example.com"))
	require.False(t, safeRedirectPath("https://evil.example.com"))
}

func TestNewRejectsBadCookieKeys(t *testing.T) {
	config := testConfig()
	config.CookieHashKey = "%%%"

	_, err := New(config, logrus.New(), nil, nil, nil, nil)
	require.Error(t, err)
}

func TestIPLimiterEvictsIdleClients(t *testing.T) {
	clock := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	limiter := newIPLimiter(rate.Limit(1), 1)
	limiter.now = func() time.Time { return clock }

	require.True(t, limiter.allow("10.0.0.1"))
	require.False(t, limiter.allow("10.0.0.1"))
	require.True(t, limiter.allow("10.0.0.2"))
	assert.Equal(t, 2, limiter.size())

	clock = clock.Add(5 * time.Minute)
	require.True(t, limiter.allow("10.0.0.2"))

	clock = clock.Add(limiterIdleTTL)
	require.True(t, limiter.allow("10.0.0.3"))
	assert.Equal(t, 1, limiter.size())
}
