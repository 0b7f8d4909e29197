package outbox

import (
	"errors"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/angelmondragon/teeforge-backend/pkg/db/models"
)

const maxDLQErrorLen = 1024

// DLQRepository parks order and campaign events the publisher gave up on.
type DLQRepository struct {
	db *gorm.DB
}

func NewDLQRepository(db *gorm.DB) *DLQRepository {
	return &DLQRepository{db: db}
}

// InsertTx writes the entry in the publisher's claim transaction so the
// source row is marked terminal atomically with it.
func (r *DLQRepository) InsertTx(tx *gorm.DB, entry models.OutboxDLQ) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	if entry.ErrorMessage != nil {
		msg := clipError(*entry.ErrorMessage)
		entry.ErrorMessage = &msg
	}
	if len(entry.Payload) == 0 {
		entry.Payload = []byte("{}")
	}
	return tx.Create(&entry).Error
}

// clipError cuts on a rune boundary so the stored text stays valid UTF-8.
func clipError(message string) string {
	if len(message) <= maxDLQErrorLen {
		return message
	}
	cut := maxDLQErrorLen
	for cut > 0 && !utf8.RuneStart(message[cut]) {
		cut--
	}
	return message[:cut]
}
