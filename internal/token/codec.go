// token реализует кодек bearer-токенов: подпись и проверку JWT на
// асимметричной паре ключей RSA (RS512).
//
// Результат проверки моделируется явными ошибками:
//   - ErrTokenMalformed — строка структурно не является JWT;
//   - ErrTokenInvalid — подпись/срок/алгоритм не прошли проверку.
//
// Список допустимых алгоритмов при проверке — одноэлементный (только
// RS512): токен, подписанный любым другим алгоритмом, отклоняется.
package token

import (
	"crypto/rsa"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/rescuelink/account-service/internal/config"
)

var (
	// ErrTokenMalformed — токен структурно не разбирается как JWT.
	ErrTokenMalformed = errors.New("token malformed")

	// ErrTokenInvalid — токен разобран, но не прошёл проверку
	// (подпись, срок действия, алгоритм, claims).
	ErrTokenInvalid = errors.New("token invalid")

	// ErrSigningKeyRequired — в prod не заданы внешние ключи подписи.
	ErrSigningKeyRequired = errors.New("signing key pair is required outside local/dev")
)

// Claims — полезная нагрузка подписанного токена.
// jti (RegisteredClaims.ID) — идентификатор записи токена в хранилище.
type Claims struct {
	AccountID string `json:"accountId"`
	jwt.RegisteredClaims
}

// Codec подписывает и проверяет bearer-токены.
// Экземпляр иммутабелен после создания и безопасен для конкурентного использования.
type Codec struct {
	private *rsa.PrivateKey
	public  *rsa.PublicKey
	issuer  string
}

// NewCodec создаёт кодек из конфигурации.
//
// Если PEM-ключи не заданы, в local/dev используется встроенная
// dev-пара; в prod возвращается ErrSigningKeyRequired.
func NewCodec(cfg config.AuthConfig, env string) (*Codec, error) {
	const op = "token.NewCodec"

	privPEM, pubPEM := cfg.PrivateKeyPEM, cfg.PublicKeyPEM
	if privPEM == "" || pubPEM == "" {
		if env == config.EnvProd {
			return nil, fmt.Errorf("%s: %w", op, ErrSigningKeyRequired)
		}

		privPEM, pubPEM = devPrivateKeyPEM, devPublicKeyPEM
	}

	private, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(privPEM))
	if err != nil {
		return nil, fmt.Errorf("%s: parse private key: %w", op, err)
	}

	public, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pubPEM))
	if err != nil {
		return nil, fmt.Errorf("%s: parse public key: %w", op, err)
	}

	return &Codec{
		private: private,
		public:  public,
		issuer:  cfg.Issuer,
	}, nil
}

// Issuer возвращает имя издателя, которое кодек проставляет в claims.
func (c *Codec) Issuer() string {
	return c.issuer
}

// CreateToken подписывает полностью заполненные claims приватным ключом.
func (c *Codec) CreateToken(claims *Claims) (string, error) {
	const op = "token.CreateToken"

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS512, claims).SignedString(c.private)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

// VerifyToken проверяет подпись и временные claims токена публичным ключом.
// Возвращает раскодированные claims либо одну из ошибок пакета.
func (c *Codec) VerifyToken(raw string) (*Claims, error) {
	const op = "token.VerifyToken"

	parsed, err := jwt.ParseWithClaims(raw, &Claims{},
		func(t *jwt.Token) (interface{}, error) {
			if t.Method.Alg() != jwt.SigningMethodRS512.Alg() {
				return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
			}

			return c.public, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS512.Alg()}),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return nil, fmt.Errorf("%s: %w", op, ErrTokenMalformed)
		}

		return nil, fmt.Errorf("%s: %w", op, ErrTokenInvalid)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("%s: %w", op, ErrTokenInvalid)
	}

	return claims, nil
}
