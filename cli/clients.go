// ABOUTME: Client CLI commands
// ABOUTME: Human-friendly commands for managing the businesses appointments belong to
package cli

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/harperreed/portal/db"
	"github.com/harperreed/portal/models"
)

// AddClientCommand adds a new client
func AddClientCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("client add", flag.ExitOnError)
	name := fs.String("name", "", "Client name (required)")
	email := fs.String("email", "", "Email address")
	phone := fs.String("phone", "", "Phone number")
	notes := fs.String("notes", "", "Notes about the client")
	_ = fs.Parse(args)

	if *name == "" {
		return fmt.Errorf("--name is required")
	}

	client := &models.Client{
		Name:  *name,
		Email: *email,
		Phone: *phone,
		Notes: *notes,
	}

	if err := db.CreateClient(database, client); err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	fmt.Printf("✓ Client created: %s (ID: %d)\n", client.Name, client.ID)
	if client.Email != "" {
		fmt.Printf("  Email: %s\n", client.Email)
	}
	if client.Phone != "" {
		fmt.Printf("  Phone: %s\n", client.Phone)
	}

	return nil
}

// ListClientsCommand lists clients
func ListClientsCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("client list", flag.ExitOnError)
	query := fs.String("query", "", "Search by name or email")
	limit := fs.Int("limit", 50, "Maximum results")
	_ = fs.Parse(args)

	clients, err := db.FindClients(database, *query, *limit)
	if err != nil {
		return fmt.Errorf("failed to find clients: %w", err)
	}

	if len(clients) == 0 {
		fmt.Println("No clients found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tEMAIL\tPHONE")
	_, _ = fmt.Fprintln(w, "--\t----\t-----\t-----")

	for _, client := range clients {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", client.ID, client.Name, dash(client.Email), dash(client.Phone))
	}
	_ = w.Flush()

	fmt.Printf("\nTotal: %d client(s)\n", len(clients))
	return nil
}

// resolveClient finds a client by name, creating it when missing.
func resolveClient(database *sql.DB, name string) (*models.Client, error) {
	existing, err := db.FindClientByName(database, name)
	if err != nil {
		return nil, fmt.Errorf("failed to lookup client: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	client := &models.Client{Name: name}
	if err := db.CreateClient(database, client); err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return client, nil
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
