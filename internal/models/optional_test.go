package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type patchBody struct {
	Name  Optional[string] `json:"name"`
	Phone Optional[string] `json:"phone"`
}

func TestOptional_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantName  Optional[string]
		wantPhone Optional[string]
	}{
		{
			name:      "absent fields stay unset",
			body:      `{}`,
			wantName:  Optional[string]{},
			wantPhone: Optional[string]{},
		},
		{
			name:      "present value",
			body:      `{"name":"Ann"}`,
			wantName:  Some("Ann"),
			wantPhone: Optional[string]{},
		},
		{
			name:      "explicit null clears",
			body:      `{"phone":null}`,
			wantName:  Optional[string]{},
			wantPhone: Null[string](),
		},
		{
			name:      "empty string is a value",
			body:      `{"phone":""}`,
			wantName:  Optional[string]{},
			wantPhone: Some(""),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got patchBody
			require.NoError(t, json.Unmarshal([]byte(tt.body), &got))
			assert.Equal(t, tt.wantName, got.Name)
			assert.Equal(t, tt.wantPhone, got.Phone)
		})
	}
}

func TestOptional_Ptr(t *testing.T) {
	assert.Nil(t, Optional[string]{}.Ptr())
	assert.Nil(t, Null[string]().Ptr())

	p := Some("x").Ptr()
	require.NotNil(t, p)
	assert.Equal(t, "x", *p)
}

func TestUserUpdate_Apply(t *testing.T) {
	phone := "555"
	user := User{
		ID:    "u1",
		Name:  "Ann",
		Email: "a@x.com",
		Phone: &phone,
		Reset: &PasswordReset{Token: "t", ExpiresAt: time.Now().Add(time.Hour)},
	}

	t.Run("empty update keeps everything", func(t *testing.T) {
		update := UserUpdate{}
		assert.True(t, update.Empty())
		assert.Equal(t, user, update.Apply(user))
	})

	t.Run("partial update touches only set fields", func(t *testing.T) {
		got := UserUpdate{Name: Some("Bob"), Phone: Null[string]()}.Apply(user)
		assert.Equal(t, "Bob", got.Name)
		assert.Equal(t, "a@x.com", got.Email)
		assert.Nil(t, got.Phone)
		assert.NotNil(t, got.Reset)
	})

	t.Run("clearing reset removes token and expiry together", func(t *testing.T) {
		got := UserUpdate{Reset: Some[*PasswordReset](nil)}.Apply(user)
		assert.Nil(t, got.Reset)
	})
}

func TestPasswordReset_Live(t *testing.T) {
	now := time.Now()
	var missing *PasswordReset

	assert.False(t, missing.Live(now))
	assert.True(t, (&PasswordReset{ExpiresAt: now.Add(time.Second)}).Live(now))
	assert.False(t, (&PasswordReset{ExpiresAt: now}).Live(now))
}
