package middlewares

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jamongadejoa28/sassmall-sub003/internal/domain"
	"github.com/jamongadejoa28/sassmall-sub003/internal/service/tokens"
)

var ErrTokenNotExist = errors.New("token not exist")

const CurrentActorKey = "currentActor"

// checkAuthorization извлекает токен из заголовка Authorization и проверяет его. Если токен не передан, вернется ошибка
// ErrTokenNotExist.
func checkAuthorization(c *gin.Context, jwtTokenSecret []byte) (*tokens.UserClaims, error) {
	tokenHeader := c.GetHeader("Authorization")
	bearer := "Bearer "

	if !strings.HasPrefix(tokenHeader, bearer) {
		return nil, ErrTokenNotExist
	}

	claims, err := tokens.ValidateUserJWT(tokenHeader[len(bearer):], jwtTokenSecret)
	if err != nil {
		return nil, fmt.Errorf("check authorization: %w", err)
	}
	return claims, nil
}

// AuthRequired проверяет, что запрос авторизован. Записывает в контекст (поле CurrentActorKey) пользователя
// и его роль.
func AuthRequired(jwtTokenSecret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := checkAuthorization(c, jwtTokenSecret)
		if err != nil {
			if !errors.Is(err, ErrTokenNotExist) {
				_ = c.Error(err).SetType(gin.ErrorTypePrivate)
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		if claims.ID <= 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Set(CurrentActorKey, claims.Actor())
		c.Next()
	}
}

// AdminRequired пропускает только администраторов. Должен стоять после AuthRequired.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !CurrentActor(c).IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
			return
		}
		c.Next()
	}
}

// CurrentActor пользователь запроса, установленный AuthRequired. Без авторизации вернется пустой Actor.
func CurrentActor(c *gin.Context) domain.Actor {
	value, exist := c.Get(CurrentActorKey)
	if !exist {
		return domain.Actor{}
	}
	actor, ok := value.(domain.Actor)
	if !ok {
		return domain.Actor{}
	}
	return actor
}
