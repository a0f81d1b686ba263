// ABOUTME: Contact database operations
// ABOUTME: Handles CRUD operations and per-client contact lookups
package db

import (
	"database/sql"
	"strings"
	"time"

	"github.com/harperreed/portal/models"
)

func CreateContact(db *sql.DB, contact *models.Contact) error {
	now := time.Now()
	contact.CreatedAt = now
	contact.UpdatedAt = now

	res, err := db.Exec(`
		INSERT INTO contacts (client_id, name, email, phone, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, contact.ClientID, contact.Name, contact.Email, contact.Phone, contact.CreatedAt, contact.UpdatedAt)
	if err != nil {
		return err
	}

	contact.ID, err = res.LastInsertId()
	return err
}

func GetContact(db *sql.DB, id int64) (*models.Contact, error) {
	contact := &models.Contact{}
	err := db.QueryRow(`
		SELECT id, client_id, name, email, phone, created_at, updated_at
		FROM contacts WHERE id = ?
	`, id).Scan(
		&contact.ID,
		&contact.ClientID,
		&contact.Name,
		&contact.Email,
		&contact.Phone,
		&contact.CreatedAt,
		&contact.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return contact, nil
}

// FindContacts searches by name or email, optionally scoped to one client.
func FindContacts(db *sql.DB, query string, clientID *int64, limit int) ([]models.Contact, error) {
	if limit <= 0 {
		limit = 10
	}

	searchPattern := "%" + strings.ToLower(query) + "%"

	var rows *sql.Rows
	var err error
	if clientID != nil {
		rows, err = db.Query(`
			SELECT id, client_id, name, email, phone, created_at, updated_at
			FROM contacts
			WHERE client_id = ? AND (LOWER(name) LIKE ? OR LOWER(email) LIKE ?)
			ORDER BY name
			LIMIT ?
		`, *clientID, searchPattern, searchPattern, limit)
	} else {
		rows, err = db.Query(`
			SELECT id, client_id, name, email, phone, created_at, updated_at
			FROM contacts
			WHERE LOWER(name) LIKE ? OR LOWER(email) LIKE ?
			ORDER BY name
			LIMIT ?
		`, searchPattern, searchPattern, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contacts []models.Contact
	for rows.Next() {
		var c models.Contact
		if err := rows.Scan(&c.ID, &c.ClientID, &c.Name, &c.Email, &c.Phone, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}

	return contacts, rows.Err()
}

func DeleteContact(db *sql.DB, id int64) error {
	_, err := db.Exec(`DELETE FROM contacts WHERE id = ?`, id)
	return err
}
