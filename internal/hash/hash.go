package hash

import "golang.org/x/crypto/bcrypt"

// Cost is bcrypt's default of 10 rounds.
const Cost = bcrypt.DefaultCost

func HashPassword(password string) (string, error) {
	return HashPasswordCost(password, Cost)
}

// HashPasswordCost lets tests trade strength for speed. Zero means Cost.
func HashPasswordCost(password string, cost int) (string, error) {
	if cost == 0 {
		cost = Cost
	}
	hashbytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashbytes), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
