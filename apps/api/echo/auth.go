package echoapi

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/jukulab/shiken/core"
	"github.com/jukulab/shiken/core/user"
)

// package auth state, set once by NewServer
var (
	appJWTConfig = middleware.JWTConfig{
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    "userToken",
		Claims:        new(Claims),
	}
	jwtExpirationDelta        time.Duration
	jwtRefreshExpirationDelta time.Duration
	appName                   string

	contextUserKey = "user"
)

func configureAuth(conf *core.Config) {
	appJWTConfig.SigningKey = []byte(conf.SecretKey)
	jwtExpirationDelta = conf.Server.JWTExpirationDelta
	jwtRefreshExpirationDelta = conf.Server.JWTRefreshExpirationDelta
	appName = conf.AppName
}

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64  `json:"oriat,omitempty"`
	Username     string `json:"username,omitempty"`
	Role         string `json:"role,omitempty"`
	SchoolID     int    `json:"school_id,omitempty"`
	ClassroomID  int    `json:"classroom_id,omitempty"`
	Refresh      bool   `json:"refresh,omitempty"`
}

func (c Claims) UserID() int {
	id, _ := strconv.Atoi(c.Subject)
	return id
}

func GetUserClaims(usr user.User, refresh bool, origIat ...int64) *Claims {
	now := time.Now()
	nownix := now.Unix()

	var oriat int64
	if len(origIat) > 0 {
		oriat = origIat[0]
	} else {
		oriat = nownix
	}

	delta := jwtExpirationDelta
	if refresh {
		delta = jwtRefreshExpirationDelta
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.New().String(),
			Issuer:    appName,
			Subject:   strconv.Itoa(usr.ID),
			ExpiresAt: now.Add(delta).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
		Username:     usr.Username,
		Role:         usr.Role,
		SchoolID:     usr.SchoolID,
		ClassroomID:  usr.ClassroomID,
		Refresh:      refresh,
	}
}

func authenticate(uname, pwd string, svc *user.Service) (user.User, error) {
	usr, err := svc.GetByUsernameOrEmail(uname)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return user.User{}, errAuthenticationFailed
		}
		return user.User{}, errors.Wrap(err, "finding user by username or email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return user.User{}, errAuthenticationFailed
	}
	if !usr.IsActive {
		return user.User{}, errAccountDeactivated
	}
	usr, err = svc.SetLastLogin(usr)
	if err != nil {
		return user.User{}, errors.Wrap(err, "setting lastLogin")
	}
	return usr, nil
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func GenerateToken(claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(appJWTConfig.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(appJWTConfig.SigningKey)
	if err != nil {
		return "", errors.New("signing token")
	}
	return ss, nil
}

// GenerateTokenPair signs an access token and a refresh token for usr.
func GenerateTokenPair(usr user.User) (access, refresh string, err error) {
	accessClaims := GetUserClaims(usr, false)
	if access, err = GenerateToken(accessClaims); err != nil {
		return "", "", err
	}
	refreshClaims := GetUserClaims(usr, true, accessClaims.IssuedAt)
	if refresh, err = GenerateToken(refreshClaims); err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// parseRefreshToken validates a refresh token string and returns its claims.
func parseRefreshToken(ss string) (*Claims, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(ss, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != appJWTConfig.SigningMethod {
			return nil, errors.Errorf("unexpected signing method %s", t.Method.Alg())
		}
		return appJWTConfig.SigningKey, nil
	})
	if err != nil || !token.Valid {
		return nil, errRefreshExpired
	}
	if !claims.Refresh {
		return nil, errRefreshExpired
	}
	return claims, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(appJWTConfig.ContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getContextUser(ctx echo.Context, svc *user.Service, clms ...Claims) (user.User, error) {
	if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
		return usr, nil
	}

	var claims Claims
	var err error
	if len(clms) > 0 {
		claims = clms[0]
	} else {
		claims, err = getContextClaims(ctx)
		if err != nil {
			return user.User{}, errors.Wrap(err, "getting context claims")
		}
	}

	usr, err := svc.GetByID(claims.UserID())
	if err != nil {
		return user.User{}, errors.Wrap(err, "finding user by ID")
	}
	ctx.Set(contextUserKey, usr)
	return usr, nil
}

func refreshTokenPair(refresh string, svc *user.Service) (string, string, error) {
	claims, err := parseRefreshToken(refresh)
	if err != nil {
		return "", "", err
	}

	usr, err := svc.GetByID(claims.UserID())
	if err != nil {
		return "", "", errors.Wrap(err, "finding user by ID")
	}
	if !usr.IsActive {
		return "", "", errAccountDeactivated
	}

	// refresh chains stop at the refresh window, counted from first issue
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(jwtRefreshExpirationDelta)
	if time.Now().After(expTime) {
		return "", "", errRefreshExpired
	}

	accessClaims := GetUserClaims(usr, false, claims.OrigIssuedAt)
	access, err := GenerateToken(accessClaims)
	if err != nil {
		return "", "", errors.Wrap(err, "generating token")
	}
	refreshClaims := GetUserClaims(usr, true, claims.OrigIssuedAt)
	newRefresh, err := GenerateToken(refreshClaims)
	if err != nil {
		return "", "", errors.Wrap(err, "generating token")
	}
	return access, newRefresh, nil
}
