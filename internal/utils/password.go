package utils

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

var (
	costMu     sync.RWMutex
	bcryptCost = 10

	dummyOnce sync.Once
	dummyHash []byte
)

// SetBcryptCost changes the work factor for new hashes. Existing hashes keep
// working because bcrypt stores the cost in the hash.
func SetBcryptCost(cost int) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return
	}
	costMu.Lock()
	bcryptCost = cost
	costMu.Unlock()
}

func currentCost() int {
	costMu.RLock()
	defer costMu.RUnlock()
	return bcryptCost
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), currentCost())
	return string(bytes), err
}

func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// DummyCheckPassword spends the same effort as CheckPassword against a real
// hash. Use it when the account does not exist so response timing does not
// reveal which usernames are registered.
func DummyCheckPassword(password string) {
	dummyOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("projectpulse-dummy"), currentCost())
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}
