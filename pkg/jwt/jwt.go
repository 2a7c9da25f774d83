package jwt

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// encodedHeader is the fixed JOSE header for every token this package
// produces. The API signs with one algorithm only, so the header never
// varies and is precomputed.
var encodedHeader = segment([]byte(`{"alg":"RS256","typ":"JWT"}`))

// Service signs and validates tokens for a single issuer.
type Service struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	issuer     string
	expiration time.Duration
}

// Config configures a Service. PrivateKeyPath may be empty for consumers
// that only validate tokens.
type Config struct {
	PrivateKeyPath string
	PublicKeyPath  string
	Issuer         string
	ExpirationMins int
}

// NewService loads the configured keys and returns a ready Service.
func NewService(cfg Config) (*Service, error) {
	svc := &Service{
		issuer:     cfg.Issuer,
		expiration: time.Duration(cfg.ExpirationMins) * time.Minute,
	}

	if cfg.PrivateKeyPath != "" {
		key, err := loadPrivateKey(cfg.PrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load private key: %w", err)
		}
		svc.privateKey = key
		svc.publicKey = &key.PublicKey
	}

	if cfg.PublicKeyPath != "" && svc.publicKey == nil {
		key, err := loadPublicKey(cfg.PublicKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load public key: %w", err)
		}
		svc.publicKey = key
	}

	return svc, nil
}

// NewTestService builds a Service around an in-memory key. Test use only.
func NewTestService(privateKey *rsa.PrivateKey, issuer string, expiration time.Duration) *Service {
	return &Service{
		privateKey: privateKey,
		publicKey:  &privateKey.PublicKey,
		issuer:     issuer,
		expiration: expiration,
	}
}

// Sign stamps issuer, iat, and nbf onto the claims and returns the signed
// token. ExpiresAt defaults to the service expiration when unset, which
// lets callers mint short or already-expired tokens deliberately.
func (s *Service) Sign(claims Claims) (string, error) {
	if s.privateKey == nil {
		return "", ErrInvalidKey
	}

	now := time.Now()
	claims.Issuer = s.issuer
	claims.IssuedAt = now.Unix()
	claims.NotBefore = now.Unix()
	if claims.ExpiresAt == 0 {
		claims.ExpiresAt = now.Add(s.expiration).Unix()
	}

	payload, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("failed to marshal claims: %w", err)
	}

	signingInput := encodedHeader + "." + segment(payload)
	digest := sha256.Sum256([]byte(signingInput))

	sig, err := rsa.SignPKCS1v15(rand.Reader, s.privateKey, crypto.SHA256, digest[:])
	if err != nil {
		return "", fmt.Errorf("failed to sign: %w", err)
	}

	return signingInput + "." + segment(sig), nil
}

// Validate verifies the token's signature against the service public key,
// checks its time window, and confirms the issuer before returning the
// claims.
func (s *Service) Validate(token string) (*Claims, error) {
	if s.publicKey == nil {
		return nil, ErrInvalidKey
	}

	signingInput, encodedSig, ok := splitToken(token)
	if !ok {
		return nil, ErrInvalidToken
	}

	sig, err := parseSegment(encodedSig)
	if err != nil {
		return nil, ErrInvalidToken
	}

	digest := sha256.Sum256([]byte(signingInput))
	if err := rsa.VerifyPKCS1v15(s.publicKey, crypto.SHA256, digest[:], sig); err != nil {
		return nil, ErrInvalidSignature
	}

	_, encodedClaims, _ := strings.Cut(signingInput, ".")
	payload, err := parseSegment(encodedClaims)
	if err != nil {
		return nil, ErrInvalidToken
	}

	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, ErrInvalidToken
	}
	if err := claims.Valid(); err != nil {
		return nil, err
	}
	if claims.Issuer != s.issuer {
		return nil, ErrInvalidToken
	}

	return &claims, nil
}

// GetExpiration returns the lifetime given to newly signed tokens.
func (s *Service) GetExpiration() time.Duration {
	return s.expiration
}

// splitToken separates a compact token into its signing input
// (header.claims) and signature.
func splitToken(token string) (signingInput, sig string, ok bool) {
	i := strings.LastIndexByte(token, '.')
	if i < 0 {
		return "", "", false
	}
	signingInput, sig = token[:i], token[i+1:]
	if strings.Count(signingInput, ".") != 1 {
		return "", "", false
	}
	return signingInput, sig, true
}

// segment encodes data as an unpadded base64url token segment.
func segment(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}

func parseSegment(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
}
