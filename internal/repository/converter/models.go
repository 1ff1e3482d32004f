package converter

import "time"

// ProductModel представляет запись таблицы products.
type ProductModel struct {
	ID       int64   `db:"id"`
	Name     string  `db:"name"`
	Unit     *string `db:"unit"`
	Category *string `db:"category"`
	Brand    *string `db:"brand"`
	Stock    int64   `db:"stock"`
	Status   *string `db:"status"`
	Image    *string `db:"image"`
}

// InventoryHistoryModel представляет запись таблицы inventory_history.
type InventoryHistoryModel struct {
	ID          int64     `db:"id"`
	ProductID   int64     `db:"product_id"`
	OldQuantity int64     `db:"old_quantity"`
	NewQuantity int64     `db:"new_quantity"`
	ChangeDate  time.Time `db:"change_date"`
	ChangedBy   string    `db:"changed_by"`
}

// UserModel представляет запись таблицы users.
type UserModel struct {
	ID           int64     `db:"id"`
	Username     string    `db:"username"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

// OutboxEventModel представляет запись таблицы outbox_events.
type OutboxEventModel struct {
	ID          int64      `db:"id"`
	EventID     string     `db:"event_id"`
	EventType   string     `db:"event_type"`
	ProductID   int64      `db:"product_id"`
	Payload     []byte     `db:"payload"`
	Status      string     `db:"status"`
	CreatedAt   time.Time  `db:"created_at"`
	ProcessedAt *time.Time `db:"processed_at"`
}
