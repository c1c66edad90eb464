// password реализует хэширование паролей: PBKDF2 (SHA-512) с
// криптографически случайной солью. Хэш детерминирован для одинаковой
// пары (пароль, соль) — это используется при проверке на входе.
package password

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"

	"golang.org/x/crypto/pbkdf2"
)

const (
	hashIterations = 200_000
	hashKeyLength  = 128
	saltLength     = 32
)

// GenerateSalt возвращает случайную соль: 32 байта в hex-кодировке.
func GenerateSalt() string {
	b := make([]byte, saltLength)
	// crypto/rand.Read не возвращает ошибок начиная с go1.24.
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// Hash вычисляет PBKDF2-хэш пароля с заданной солью (hex-строка соли
// используется как есть). Для одинаковых входов результат всегда одинаков.
func Hash(password, salt string) string {
	key := pbkdf2.Key([]byte(password), []byte(salt), hashIterations, hashKeyLength, sha512.New)
	return hex.EncodeToString(key)
}

// Verify сравнивает пароль с сохранённым хэшем за константное время.
func Verify(password, salt, wantHash string) bool {
	got := Hash(password, salt)
	return subtle.ConstantTimeCompare([]byte(got), []byte(wantHash)) == 1
}
