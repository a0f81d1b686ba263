// ABOUTME: Client database operations
// ABOUTME: Handles CRUD operations and client lookups
package db

import (
	"database/sql"
	"strings"
	"time"

	"github.com/harperreed/portal/models"
)

func CreateClient(db *sql.DB, client *models.Client) error {
	now := time.Now()
	client.CreatedAt = now
	client.UpdatedAt = now

	res, err := db.Exec(`
		INSERT INTO clients (name, email, phone, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, client.Name, client.Email, client.Phone, client.Notes, client.CreatedAt, client.UpdatedAt)
	if err != nil {
		return err
	}

	client.ID, err = res.LastInsertId()
	return err
}

func GetClient(db *sql.DB, id int64) (*models.Client, error) {
	client := &models.Client{}
	err := db.QueryRow(`
		SELECT id, name, email, phone, notes, created_at, updated_at
		FROM clients WHERE id = ?
	`, id).Scan(
		&client.ID,
		&client.Name,
		&client.Email,
		&client.Phone,
		&client.Notes,
		&client.CreatedAt,
		&client.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	return client, err
}

func FindClients(db *sql.DB, query string, limit int) ([]models.Client, error) {
	if limit <= 0 {
		limit = 10
	}

	searchPattern := "%" + strings.ToLower(query) + "%"
	rows, err := db.Query(`
		SELECT id, name, email, phone, notes, created_at, updated_at
		FROM clients
		WHERE LOWER(name) LIKE ? OR LOWER(email) LIKE ?
		ORDER BY name
		LIMIT ?
	`, searchPattern, searchPattern, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []models.Client
	for rows.Next() {
		var c models.Client
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Notes, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}

	return clients, rows.Err()
}

// FindClientByName does a case-insensitive exact match.
func FindClientByName(db *sql.DB, name string) (*models.Client, error) {
	client := &models.Client{}
	err := db.QueryRow(`
		SELECT id, name, email, phone, notes, created_at, updated_at
		FROM clients
		WHERE LOWER(name) = LOWER(?)
		LIMIT 1
	`, name).Scan(
		&client.ID,
		&client.Name,
		&client.Email,
		&client.Phone,
		&client.Notes,
		&client.CreatedAt,
		&client.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	return client, err
}

func DeleteClient(db *sql.DB, id int64) error {
	_, err := db.Exec(`DELETE FROM clients WHERE id = ?`, id)
	return err
}
