package middleware

import (
    "time"

    "github.com/golang-jwt/jwt/v5"
)

// IssueToken signs an HS256 access token accepted by JWTAuth.  Production
// tokens come from the identity service; this is used by the devtoken
// command and by tests.
func IssueToken(secret string, userID uint64, role string, ttl time.Duration) (string, time.Time, error) {
    now := time.Now().UTC()
    exp := now.Add(ttl)
    claims := jwt.MapClaims{
        "sub":  userID,
        "role": role,
        "exp":  exp.Unix(),
        "iat":  now.Unix(),
    }
    signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
    if err != nil {
        return "", time.Time{}, err
    }
    return signed, exp, nil
}
