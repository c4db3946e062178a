package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const ViewerIDKey = "viewer_id"

var ErrInvalidToken = errors.New("invalid token")

// ViewerAuth verifies access tokens issued by the auth service and exposes
// the viewer's profile id to handlers. Tokens are never issued here.
type ViewerAuth struct {
	secret []byte
}

func NewViewerAuth(secret string) *ViewerAuth {
	return &ViewerAuth{secret: []byte(secret)}
}

// RequireViewer rejects requests without a valid bearer token.
func (a *ViewerAuth) RequireViewer() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing authorization token",
				"code":  "unauthorized",
			})
			return
		}

		viewerID, err := a.ViewerID(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid authorization token",
				"code":  "unauthorized",
			})
			return
		}

		c.Set(ViewerIDKey, viewerID)
		c.Next()
	}
}

// ViewerID validates token and returns the profile id from its subject.
func (a *ViewerAuth) ViewerID(tokenString string) (int64, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return 0, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrInvalidToken
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return 0, ErrInvalidToken
	}
	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidToken
	}
	return id, nil
}

// bearerToken reads the Authorization header. Browsers cannot set headers on
// websocket upgrades, so access_token in the query is accepted as well.
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return c.Query("access_token")
}

// ViewerFromContext returns the id set by RequireViewer.
func ViewerFromContext(c *gin.Context) (int64, bool) {
	v, ok := c.Get(ViewerIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}
