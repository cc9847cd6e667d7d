// Команда billed-adduser создаёт учётную запись прямо в базе хранилища.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/billed-app/billed/internal/models"
	authservice "github.com/billed-app/billed/internal/services/auth"
	"github.com/billed-app/billed/internal/storage"
)

// openUsers открывает хранилище пользователей по DSN.
var openUsers = func(dsn string) (authservice.UserRepository, func() error, error) {
	db, err := storage.New(dsn)
	if err != nil {
		return nil, nil, err
	}
	return db, db.Close, nil
}

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("billed-adduser", flag.ContinueOnError)
	fs.SetOutput(stderr)

	email := fs.String("email", "", "E-mail")
	userType := fs.String("type", models.UserTypeEmployee, "Account type: Employee or Admin")
	name := fs.String("name", "", "Display name (defaults to the e-mail local part)")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")
	dsn := fs.String("dsn", os.Getenv("BILLED_DSN"), "Postgres connection string")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *email == "" {
		fmt.Fprintln(stdout, "Usage: billed-adduser -email <email> [-type Employee|Admin] [-name <name>] [-password <password>] [-dsn <dsn>]")
		fs.PrintDefaults()
		return errors.New("missing required flags: email")
	}
	if *userType != models.UserTypeEmployee && *userType != models.UserTypeAdmin {
		return fmt.Errorf("unknown account type %q", *userType)
	}
	if *dsn == "" {
		return errors.New("missing database connection string: set -dsn or BILLED_DSN")
	}

	password := *passwordFlag
	if password == "" {
		fmt.Fprint(stdout, "Password: ")
		var err error
		password, err = readPassword(stdin)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(stdout)
	}
	if strings.TrimSpace(password) == "" {
		return errors.New("password cannot be empty")
	}

	users, closeFn, err := openUsers(*dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer closeFn()

	svc := authservice.NewService(users, nil)
	user, err := svc.CreateUser(context.Background(), *userType, *name, *email, password)
	if err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			return fmt.Errorf("user %s already exists", *email)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Fprintf(stdout, "%s %s (%s) created successfully\n", user.Type, user.Email, user.Name)
	return nil
}

func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(bytePassword), nil
	}

	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
