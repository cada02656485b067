// cmd/adduser/main.go
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"paycheck-tracker/internal/app"
	"paycheck-tracker/internal/auth"
	"paycheck-tracker/internal/config"
	"strings"

	"golang.org/x/term"
)

func main() {
	cfg := config.MustLoad()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))

	a, err := app.Open(context.Background(), cfg)
	if err != nil {
		slog.Error("Startup failed", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := run(context.Background(), a.Auth, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "adduser:", err)
		a.Close()
		os.Exit(1)
	}
}

// run creates one account. The password is read without echo from a
// terminal, or as the first line of stdin otherwise.
func run(ctx context.Context, svc *auth.Service, args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	fs.SetOutput(stdout)
	email := fs.String("email", "", "account email (required)")
	name := fs.String("name", "", "display name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return errors.New("-email is required")
	}

	password, err := readPassword(stdin, stdout)
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}

	_, id, err := svc.CreateAccount(ctx, *email, password, *name)
	if err != nil {
		return errors.New(auth.Message(err))
	}
	fmt.Fprintf(stdout, "Created user %s (%s)\n", id.Email, id.UserID)
	return nil
}

func readPassword(stdin io.Reader, stdout io.Writer) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(stdout, "Password: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(stdout)
		return string(b), err
	}
	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
