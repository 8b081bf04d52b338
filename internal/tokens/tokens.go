package tokens

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dmarulanda/muninet/internal/models"
)

// Token kinds carried in the "typ" claim. Access and refresh tokens are
// signed with different secrets, but the kind check is enforced anyway
// so a token can never cross roles even if the secrets ever collide.
const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

var (
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenMalformed = errors.New("token malformed")
	ErrWrongTokenKind = errors.New("wrong token kind")
)

// AccessClaims is the profile snapshot embedded in short-lived access
// tokens. Subject holds the user id.
type AccessClaims struct {
	Username       string `json:"username"`
	Email          string `json:"email"`
	RoleID         uint   `json:"role_id"`
	Role           string `json:"role"`
	MunicipalityID *uint  `json:"municipality_id,omitempty"`
	TokenType      string `json:"typ"`
	jwt.RegisteredClaims
}

// RefreshClaims carries no profile data. Refresh tokens are only ever
// exchanged after a fresh directory lookup, so embedding anything
// beyond the subject would just go stale.
type RefreshClaims struct {
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

func (c *AccessClaims) UserID() (uint, error)  { return subjectID(c.Subject) }
func (c *RefreshClaims) UserID() (uint, error) { return subjectID(c.Subject) }

func subjectID(sub string) (uint, error) {
	id, err := strconv.ParseUint(sub, 10, 64)
	if err != nil {
		return 0, ErrTokenMalformed
	}
	return uint(id), nil
}

// Codec builds and parses both token kinds. Secrets and TTLs are fixed
// at construction from process configuration.
type Codec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewCodec(accessSecret, refreshSecret []byte, accessTTL, refreshTTL time.Duration) *Codec {
	return &Codec{
		accessSecret:  accessSecret,
		refreshSecret: refreshSecret,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

func (c *Codec) IssueAccess(u models.User) (string, time.Time, error) {
	exp := time.Now().UTC().Add(c.accessTTL)
	claims := AccessClaims{
		Username:       u.Username,
		Email:          u.Email,
		RoleID:         u.RoleID,
		Role:           u.Role.Name,
		MunicipalityID: u.MunicipalityID,
		TokenType:      KindAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(u.ID), 10),
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now().UTC()),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.accessSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

func (c *Codec) IssueRefresh(u models.User) (string, time.Time, error) {
	exp := time.Now().UTC().Add(c.refreshTTL)
	claims := RefreshClaims{
		TokenType: KindRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(u.ID), 10),
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now().UTC()),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.refreshSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

func (c *Codec) VerifyAccess(raw string) (*AccessClaims, error) {
	var claims AccessClaims
	if err := c.parse(raw, &claims, c.accessSecret); err != nil {
		return nil, err
	}
	if claims.TokenType != KindAccess {
		return nil, ErrWrongTokenKind
	}
	return &claims, nil
}

func (c *Codec) VerifyRefresh(raw string) (*RefreshClaims, error) {
	var claims RefreshClaims
	if err := c.parse(raw, &claims, c.refreshSecret); err != nil {
		return nil, err
	}
	if claims.TokenType != KindRefresh {
		return nil, ErrWrongTokenKind
	}
	return &claims, nil
}

func (c *Codec) parse(raw string, claims jwt.Claims, secret []byte) error {
	tkn, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return ErrTokenMalformed
	}
	if !tkn.Valid {
		return ErrTokenMalformed
	}
	return nil
}
