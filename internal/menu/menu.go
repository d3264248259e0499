// Package menu is the numbered terminal front end. It drives the same
// services as the HTTP API.
package menu

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/lgu-records/recordkeeper/internal/services"
	"github.com/lgu-records/recordkeeper/types"
)

// Services are the use-cases the menu drives.
type Services struct {
	Records  *services.RecordService
	Users    *services.UserService
	Transfer *services.TransferService
	Backups  *services.BackupService
}

// Menu runs the login prompt and the numbered menu on one input stream.
type Menu struct {
	svc          Services
	in           *bufio.Reader
	out          io.Writer
	readPassword func() (string, error)
	user         *types.User
}

func New(svc Services, in io.Reader, out io.Writer) *Menu {
	lines := bufio.NewReader(in)
	return &Menu{
		svc:          svc,
		in:           lines,
		out:          out,
		readPassword: passwordReader(in, lines, out),
	}
}

type entry struct {
	label  string
	action func(m *Menu, ctx context.Context) error
}

var entries = []entry{
	{"Add new record", (*Menu).addRecord},
	{"View all records", (*Menu).viewRecords},
	{"Search records", (*Menu).searchRecords},
	{"Search by date range", (*Menu).searchByDate},
	{"Edit record", (*Menu).editRecord},
	{"Mark record as done", (*Menu).markDone},
	{"Delete record", (*Menu).deleteRecord},
	{"View statistics", (*Menu).statistics},
	{"Export records", (*Menu).exportRecords},
	{"Import records (Append)", (*Menu).importAppend},
	{"Import records (Replace)", (*Menu).importReplace},
	{"Create backup", (*Menu).createBackup},
	{"Restore backup", (*Menu).restoreBackup},
	{"Change password", (*Menu).changePassword},
	{"Logout", (*Menu).logout},
	{"Exit", nil},
}

// Run loops until the user picks Exit or input ends.
func (m *Menu) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		if m.user == nil {
			if err := m.login(ctx); err != nil {
				return quietEOF(err)
			}
			continue
		}

		m.printMenu()
		choice, err := m.prompt(fmt.Sprintf("Enter your choice (1-%d): ", len(entries)))
		if err != nil {
			return quietEOF(err)
		}
		i := indexOf(choice)
		if i < 0 {
			fmt.Fprintf(m.out, "Invalid choice. Please enter a number between 1 and %d.\n", len(entries))
			continue
		}

		e := entries[i]
		if e.action == nil {
			fmt.Fprintln(m.out, "\nThank you for using the Record Keeping Management System!")
			return nil
		}
		fmt.Fprintf(m.out, "\n--- %s ---\n", e.label)
		if err := e.action(m, ctx); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			m.report(err)
		}
	}
}

func (m *Menu) login(ctx context.Context) error {
	fmt.Fprintln(m.out, "\n--- Login ---")
	username, err := m.prompt("Enter username: ")
	if err != nil {
		return err
	}
	password, err := m.password("Enter password: ")
	if err != nil {
		return err
	}

	user, err := m.svc.Users.Authenticate(ctx, username, password)
	if err != nil {
		fmt.Fprintln(m.out, "Login failed. Please try again.")
		return nil
	}
	m.user = &user
	fmt.Fprintln(m.out, "Login successful!")
	return nil
}

func (m *Menu) printMenu() {
	rule := strings.Repeat("=", 50)
	fmt.Fprintf(m.out, "\n%s\nRECORD KEEPING MANAGEMENT SYSTEM - Logged in as %s (%s)\n%s\n",
		rule, m.user.Username, m.user.Role, rule)
	for i, e := range entries {
		fmt.Fprintf(m.out, "%d. %s\n", i+1, e.label)
	}
	fmt.Fprintln(m.out, strings.Repeat("-", 50))
}

func indexOf(choice string) int {
	n, err := strconv.Atoi(choice)
	if err != nil || n < 1 || n > len(entries) {
		return -1
	}
	return n - 1
}

func quietEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
