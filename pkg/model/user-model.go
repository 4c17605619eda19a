package model

import "strings"

// User model
//
// Every exchange worker owns its balances, credits and debits through one manager user.
type User struct {
	ID int64 `json:"id" gorm:"omitempty; primaryKey;"`

	Username string `json:"username" gorm:"omitempty; not null; type:varchar(48); uniqueIndex;"`
	PubKey   string `json:"pubKey" gorm:"omitempty; not null; type:varchar(256); default:'';"`

	Model
}

// ManagerUsername returns the manager user of an exchange, e.g. HelperManager.
func ManagerUsername(exchange string) string {
	if exchange == "" {
		return "Manager"
	}
	exchange = strings.ToLower(exchange)
	return strings.ToUpper(exchange[:1]) + exchange[1:] + "Manager"
}
