// ABOUTME: Contact CLI commands
// ABOUTME: Human-friendly commands for managing the people met at each client
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

// AddContactCommand adds a new contact to a client.
func AddContactCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("contact add", flag.ExitOnError)
	name := fs.String("name", "", "Contact name (required)")
	clientName := fs.String("client", "", "Client name (required, created if missing)")
	email := fs.String("email", "", "Email address")
	phone := fs.String("phone", "", "Phone number")
	_ = fs.Parse(args)

	if *name == "" {
		return fmt.Errorf("--name is required")
	}
	if *clientName == "" {
		return fmt.Errorf("--client is required")
	}

	client, err := resolveClient(database, *clientName)
	if err != nil {
		return err
	}

	contact := &models.Contact{
		ClientID: client.ID,
		Name:     *name,
		Email:    *email,
		Phone:    *phone,
	}
	if err := db.CreateContact(database, contact); err != nil {
		return fmt.Errorf("failed to create contact: %w", err)
	}

	fmt.Printf("✓ Contact created: %s (ID: %d)\n", contact.Name, contact.ID)
	fmt.Printf("  Client: %s\n", client.Name)
	if contact.Email != "" {
		fmt.Printf("  Email: %s\n", contact.Email)
	}

	return nil
}

// ListContactsCommand lists contacts.
func ListContactsCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("contact list", flag.ExitOnError)
	query := fs.String("query", "", "Search by name or email")
	clientName := fs.String("client", "", "Filter by client name")
	limit := fs.Int("limit", 50, "Maximum results")
	_ = fs.Parse(args)

	var clientID *int64
	if *clientName != "" {
		client, err := db.FindClientByName(database, *clientName)
		if err != nil {
			return fmt.Errorf("failed to lookup client: %w", err)
		}
		if client == nil {
			fmt.Printf("No client named %q\n", *clientName)
			return nil
		}
		clientID = &client.ID
	}

	contacts, err := db.FindContacts(database, *query, clientID, *limit)
	if err != nil {
		return fmt.Errorf("failed to find contacts: %w", err)
	}

	if len(contacts) == 0 {
		fmt.Println("No contacts found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tEMAIL\tPHONE\tCLIENT ID")
	_, _ = fmt.Fprintln(w, "--\t----\t-----\t-----\t---------")

	for _, contact := range contacts {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\n",
			contact.ID, contact.Name, dash(contact.Email), dash(contact.Phone), contact.ClientID)
	}
	_ = w.Flush()

	fmt.Printf("\nTotal: %d contact(s)\n", len(contacts))
	return nil
}
