package handlers

import (
	"net/http"
	"strings"
	"time"

	"laganbus/internal/domain"
	"laganbus/internal/http/middleware"
	"laganbus/internal/repositories"
	"laganbus/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login is step one of operator sign-in: a correct password yields a
// short-lived token whose stage=pin claim keeps it out of admin routes
// until the PIN is verified.
func Login(c *gin.Context) {
	var req loginRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	d := getDeps()
	username := strings.TrimSpace(req.Username)
	if username == "" {
		username = "admin"
	}

	if !checkCredential(d, username, req.Password, false) {
		utils.LogEvent(middleware.GetRequestID(c), "auth", "login_denied", "username="+username)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
		return
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": username,
		"stage":    "pin",
		"exp":      time.Now().Add(5 * time.Minute).Unix(),
	})
	tokenString, err := token.SignedString([]byte(d.Env.JWTSecret))
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "failed to sign token", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"pinRequired": true,
		"token":       tokenString,
	})
}

type verifyPINRequest struct {
	Token string `json:"token"`
	PIN   string `json:"pin"`
}

// VerifyPIN is step two: the pin-stage token plus the correct PIN are
// exchanged for a 24h operator token.
func VerifyPIN(c *gin.Context) {
	var req verifyPINRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	d := getDeps()
	secret := []byte(d.Env.JWTSecret)

	token, err := jwt.Parse(req.Token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired login, start over"})
		return
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token claims"})
		return
	}
	if stage, _ := claims["stage"].(string); stage != "pin" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token is not awaiting PIN verification"})
		return
	}
	username, _ := claims["username"].(string)

	if !checkCredential(d, username, req.PIN, true) {
		utils.LogEvent(middleware.GetRequestID(c), "auth", "pin_denied", "username="+username)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "incorrect PIN"})
		return
	}

	full := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": username,
		"role":     "operator",
		"exp":      time.Now().Add(24 * time.Hour).Unix(),
	})
	tokenString, err := full.SignedString(secret)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "failed to sign token", err)
		return
	}

	utils.LogEvent(middleware.GetRequestID(c), "auth", "login", "username="+username)
	c.JSON(http.StatusOK, gin.H{"token": tokenString})
}

// checkCredential verifies either the password or the PIN for an operator
// account. Accounts live in MySQL when a DSN is configured; otherwise the
// env credentials apply and any username maps to the single built-in
// operator.
func checkCredential(d Deps, username, secret string, pin bool) bool {
	if d.Operators.Enabled() {
		op, err := d.Operators.GetByUsername(username)
		if err != nil || op.Status != "active" {
			return false
		}
		hash := op.PasswordHash
		if pin {
			hash = op.PINHash
		}
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
	}

	want := d.Env.AdminPassword
	if pin {
		want = d.Env.AdminPIN
	}
	return secret == want
}

type createOperatorRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Password string `json:"password"`
	PIN      string `json:"pin"`
}

// CreateOperator registers a new operator account. Only reachable behind
// the admin gate, and only meaningful when the operators table is wired.
func CreateOperator(c *gin.Context) {
	var req createOperatorRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	d := getDeps()
	if !d.Operators.Enabled() {
		RespondError(c, http.StatusServiceUnavailable, "operator accounts require a database", nil)
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" || req.PIN == "" {
		RespondDomainError(c, domain.ValidationError{Msg: "username, password and pin are required"})
		return
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "failed to hash password", err)
		return
	}
	pinHash, err := bcrypt.GenerateFromPassword([]byte(req.PIN), bcrypt.DefaultCost)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "failed to hash pin", err)
		return
	}

	id, err := d.Operators.Create(repositories.Operator{
		Name:         req.Name,
		Username:     req.Username,
		PasswordHash: string(passHash),
		PINHash:      string(pinHash),
		Role:         "operator",
		Status:       "active",
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":       id,
		"username": req.Username,
		"role":     "operator",
		"status":   "active",
	})
}
