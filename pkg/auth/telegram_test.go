package auth

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initData(user string) string {
	v := url.Values{}
	v.Set("auth_date", "1735689600")
	if user != "" {
		v.Set("user", user)
	}
	v.Set("hash", "ignored-in-debug")
	return v.Encode()
}

func TestExtractTelegramData(t *testing.T) {
	data, err := ExtractTelegramData(initData(`{"id":42,"username":"anna","first_name":"Anna"}`))
	require.NoError(t, err)
	assert.Equal(t, int64(42), data.ID)
	assert.Equal(t, "anna", data.Username)
	assert.Equal(t, "Anna", data.FirstName)
	assert.Equal(t, int64(1735689600), data.AuthDate.Unix())

	_, err = ExtractTelegramData(initData(""))
	assert.ErrorIs(t, err, ErrNoUser)

	_, err = ExtractTelegramData("auth_date=soon")
	assert.Error(t, err)
}

func TestTelegramAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		header     string
		allow      []int64
		wantStatus int
		wantUser   int64
	}{
		{name: "Missing header", wantStatus: http.StatusUnauthorized},
		{name: "Wrong scheme", header: "Bearer abc", wantStatus: http.StatusUnauthorized},
		{name: "No user", header: "Telegram " + initData(""), wantStatus: http.StatusUnauthorized},
		{name: "Allowed user", header: "Telegram " + initData(`{"id":42}`), allow: []int64{42}, wantStatus: http.StatusOK, wantUser: 42},
		{name: "Open game", header: "Telegram " + initData(`{"id":7}`), wantStatus: http.StatusOK, wantUser: 7},
		{name: "Stranger", header: "Telegram " + initData(`{"id":7}`), allow: []int64{42}, wantStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen int64
			r := gin.New()
			r.Use(NewTelegramAuth("token", true, NewAllowlist(tt.allow)).TelegramAuthMiddleware())
			r.GET("/me", func(c *gin.Context) {
				user, ok := UserFromContext(c)
				require.True(t, ok)
				seen = user.ID
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantUser, seen)
		})
	}
}

func TestTelegramAuthValidatesSignature(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(NewTelegramAuth("token", false, nil).TelegramAuthMiddleware())
	r.GET("/me", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Telegram "+initData(`{"id":42}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAllowlist(t *testing.T) {
	var none *Allowlist
	assert.True(t, none.Allowed(1))
	assert.True(t, NewAllowlist(nil).Allowed(1))

	a := NewAllowlist([]int64{5, 6})
	assert.True(t, a.Allowed(6))
	assert.False(t, a.Allowed(7))
}
