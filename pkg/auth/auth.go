package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/arnavshah/staffing-engine-go/pkg/config"
	"github.com/arnavshah/staffing-engine-go/pkg/database"
)

var (
	mu           sync.RWMutex
	jwtSecret    []byte
	masterSecret []byte
)

var jwtAlgorithm = jwt.SigningMethodHS256

// bcryptCost is lowered in tests.
var bcryptCost = 14

// TokenTTL is how long a dashboard token stays valid.
const TokenTTL = 24 * time.Hour

// Configure installs the signing secrets. It must run before any token or
// key is issued or checked.
func Configure(cfg config.AuthConfig) {
	mu.Lock()
	defer mu.Unlock()
	jwtSecret = []byte(cfg.JWTSecret)
	masterSecret = []byte(cfg.APIMasterSecret)
}

func secrets() ([]byte, []byte) {
	mu.RLock()
	defer mu.RUnlock()
	return jwtSecret, masterSecret
}

// Claims represents the JWT claims
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	return string(bytes), err
}

// CheckPasswordHash compares a password with its hash
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// CreateToken creates a new JWT token for a dashboard user
func CreateToken(username string) (string, error) {
	secret, _ := secrets()
	if len(secret) == 0 {
		return "", eris.New("auth: jwt secret not configured")
	}

	claims := &Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwtAlgorithm, claims)
	return token.SignedString(secret)
}

// VerifyToken verifies a JWT token
func VerifyToken(tokenString string) (*Claims, error) {
	secret, _ := secrets()
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwtAlgorithm {
			return nil, eris.Errorf("auth: unexpected signing method %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, eris.New("auth: invalid token")
	}

	return claims, nil
}

// EnsureAdminExists creates the first dashboard user when none exists.
func EnsureAdminExists(db *gorm.DB, username, password string) error {
	var count int64
	if err := db.Model(&database.MasterUser{}).Count(&count).Error; err != nil {
		return eris.Wrap(err, "auth: count admins")
	}
	if count > 0 {
		return nil
	}

	hash, err := HashPassword(password)
	if err != nil {
		return eris.Wrap(err, "auth: hash admin password")
	}

	user := database.MasterUser{
		Username:     username,
		PasswordHash: hash,
	}
	if err := db.Create(&user).Error; err != nil {
		return eris.Wrap(err, "auth: create admin")
	}

	zap.L().Info("auth: default admin user created", zap.String("username", username))
	return nil
}

// Authenticate checks dashboard credentials and returns a signed token.
func Authenticate(db *gorm.DB, username, password string) (string, error) {
	var user database.MasterUser
	if err := db.Where("username = ?", username).First(&user).Error; err != nil {
		return "", ErrInvalidCredentials
	}
	if !CheckPasswordHash(password, user.PasswordHash) {
		return "", ErrInvalidCredentials
	}
	return CreateToken(user.Username)
}

// ErrInvalidCredentials is returned for unknown users and wrong passwords alike.
var ErrInvalidCredentials = eris.New("auth: invalid credentials")

func sign(clientID string) string {
	_, secret := secrets()
	h := hmac.New(sha256.New, secret)
	h.Write([]byte(clientID))
	return hex.EncodeToString(h.Sum(nil))
}

// GenerateHMACKey creates a signed API key using HMAC-SHA256
func GenerateHMACKey(clientID string) (string, error) {
	if _, secret := secrets(); len(secret) == 0 {
		return "", eris.New("auth: api master secret not configured")
	}
	if clientID == "" || strings.Contains(clientID, ".") {
		return "", eris.Errorf("auth: invalid client id %q", clientID)
	}
	return clientID + "." + sign(clientID), nil
}

// VerifyHMACKey validates an HMAC-signed API key and returns its client id
func VerifyHMACKey(key string) (string, error) {
	if _, secret := secrets(); len(secret) == 0 {
		return "", eris.New("auth: api master secret not configured")
	}

	parts := strings.Split(key, ".")
	if len(parts) != 2 || parts[0] == "" {
		return "", eris.New("auth: invalid key format")
	}

	// constant-time comparison
	if !hmac.Equal([]byte(parts[1]), []byte(sign(parts[0]))) {
		return "", eris.New("auth: invalid signature")
	}

	return parts[0], nil
}
