package util

import (
	"errors"
	"sync"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/raids-lab/tracker/dao/model"
	"github.com/raids-lab/tracker/pkg/config"
	"github.com/raids-lab/tracker/pkg/logutils"
)

// The identity provider issues the tokens; this side only verifies them and
// extracts the two things the planning core cares about: who the actor is
// and whether they are privileged.
type (
	JWTClaims struct {
		UserID   uint       `json:"ui"`
		Username string     `json:"un"`
		Role     model.Role `json:"ro"`
		jwt.RegisteredClaims
	}
	JWTMessage struct {
		UserID   uint       `json:"userID"`
		Username string     `json:"username"`
		Role     model.Role `json:"role"`
	}
)

// IsPrivileged reports whether the actor may bypass ownership checks.
func (m JWTMessage) IsPrivileged() bool {
	return m.Role == model.RoleAdmin
}

type TokenManager struct {
	secretKey      string
	accessTokenTTL int
}

var (
	tokenOnce sync.Once
	tokenMgr  *TokenManager
)

func GetTokenMgr() *TokenManager {
	tokenOnce.Do(func() {
		conf := config.GetConfig()
		tokenMgr = &TokenManager{
			secretKey:      conf.Auth.AccessTokenSecret,
			accessTokenTTL: 24,
		}
	})
	return tokenMgr
}

// CreateToken signs an access token, used by tests and local tooling; in
// production the identity provider issues tokens with the shared secret.
func (tm *TokenManager) CreateToken(msg *JWTMessage) (string, error) {
	expiresAt := time.Now().Add(time.Hour * time.Duration(tm.accessTokenTTL))

	claims := &JWTClaims{
		UserID:   msg.UserID,
		Username: msg.Username,
		Role:     msg.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(tm.secretKey))
	if err != nil {
		logutils.Log.Error(err)
		return "", err
	}
	return signed, nil
}

func (tm *TokenManager) CheckToken(requestToken string) (JWTMessage, error) {
	claims := JWTClaims{}
	_, err := jwt.ParseWithClaims(requestToken, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(tm.secretKey), nil
	})
	return JWTMessage{
		UserID:   claims.UserID,
		Username: claims.Username,
		Role:     claims.Role,
	}, err
}
