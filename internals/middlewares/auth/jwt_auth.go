package auth

import (
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"gorm.io/gorm"

	helperAuth "campusorbit_backend/internals/helpers/auth"
	"campusorbit_backend/internals/helpers/dbtime"
)

type AuthJWTOpts struct {
	Secret              string
	DB                  *gorm.DB // when set, inactive users are rejected
	AllowCookieFallback bool     // use the access_token cookie when no Bearer header
}

func AuthJWT(o AuthJWTOpts) fiber.Handler {
	secret := strings.TrimSpace(o.Secret)
	if secret == "" {
		panic("AuthJWT: secret is required")
	}

	return func(c *fiber.Ctx) error {
		raw, err := extractBearerToken(c, o.AllowCookieFallback)
		if err != nil {
			return err
		}

		claims := jwt.MapClaims{}
		tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.NewError(fiber.StatusUnauthorized, "invalid signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !tok.Valid {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid or expired token")
		}

		userID, err := uuid.Parse(strings.TrimSpace(asString(claims["id"])))
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid or missing user id")
		}

		if o.DB != nil {
			if err := ensureUserActive(o.DB, userID); err != nil {
				log.Printf("[AUTH] user %s rejected: %v", userID, err)
				return fiber.NewError(fiber.StatusForbidden, "account is inactive")
			}
		}

		c.Locals("jwt_claims", claims)
		c.Locals(helperAuth.LocUserID, userID.String())
		c.Locals(helperAuth.LocRole, asString(claims["role"]))
		c.Locals(helperAuth.LocUserName, asString(claims["name"]))
		if sid := strings.TrimSpace(asString(claims["school_id"])); sid != "" {
			c.Locals(helperAuth.LocSchoolID, sid)
		}
		if tz := strings.TrimSpace(asString(claims["school_timezone"])); tz != "" {
			c.Locals(dbtime.LocSchoolTimezone, tz)
		}
		return c.Next()
	}
}

func extractBearerToken(c *fiber.Ctx, cookieFallback bool) (string, error) {
	authz := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if authz == "" && cookieFallback {
		if v := strings.TrimSpace(c.Cookies("access_token")); v != "" {
			return v, nil
		}
	}
	if authz == "" {
		return "", fiber.NewError(fiber.StatusUnauthorized, "no token provided")
	}
	fields := strings.Fields(authz)
	if len(fields) < 2 || !strings.EqualFold(fields[0], "Bearer") {
		return "", fiber.NewError(fiber.StatusUnauthorized, "invalid token format")
	}
	tok := strings.Trim(strings.TrimSpace(fields[1]), "\"'")
	if tok == "" {
		return "", fiber.NewError(fiber.StatusUnauthorized, "empty token")
	}
	return tok, nil
}

func ensureUserActive(db *gorm.DB, userID uuid.UUID) error {
	var row struct {
		UserIsActive bool
	}
	if err := db.Table("users").
		Select("user_is_active").
		Where("user_id = ?", userID).
		Take(&row).Error; err != nil {
		return err
	}
	if !row.UserIsActive {
		return fiber.ErrForbidden
	}
	return nil
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// AccessClaims is the payload issued at login.
type AccessClaims struct {
	ID             string `json:"id"`
	Role           string `json:"role"`
	Name           string `json:"name,omitempty"`
	SchoolID       string `json:"school_id,omitempty"`
	SchoolTimezone string `json:"school_timezone,omitempty"`
	jwt.RegisteredClaims
}

// IssueAccessToken signs an HS256 access token.
func IssueAccessToken(secret string, claims AccessClaims, ttl time.Duration, now time.Time) (string, time.Time, error) {
	exp := now.Add(ttl)
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   claims.ID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	return signed, exp, err
}
