package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/psds-microservice/helpdesk-service/internal/auth"
	"github.com/psds-microservice/helpdesk-service/internal/client"
	"github.com/psds-microservice/helpdesk-service/internal/errs"
	"github.com/psds-microservice/helpdesk-service/internal/identity"
	"github.com/psds-microservice/helpdesk-service/internal/validate"
)

// authFlow runs one command's session changes through a Store listener and prints
// each redirect, the same way a UI would navigate.
type authFlow struct {
	store  *auth.Store
	events chan auth.Notification
	done   chan struct{}
}

func startAuthFlow(ctx context.Context, restored *auth.Session, out io.Writer) *authFlow {
	f := &authFlow{
		store:  auth.NewStore(restored, nil),
		events: make(chan auth.Notification),
		done:   make(chan struct{}),
	}
	go func() {
		defer close(f.done)
		f.store.Listen(ctx, f.events, func(r auth.Redirect) {
			fmt.Fprintln(out, "->", r)
		})
	}()
	return f
}

func (f *authFlow) emit(ev auth.Event, sess *auth.Session) {
	f.events <- auth.Notification{Event: ev, Session: sess}
}

// finish stops the listener and returns the final session.
func (f *authFlow) finish() *auth.Session {
	close(f.events)
	<-f.done
	return f.store.Session()
}

var passwordFile string

func readPassword(cmd *cobra.Command, prompt string) (string, error) {
	if passwordFile != "" && passwordFile != "-" {
		data, err := os.ReadFile(passwordFile)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", passwordFile, err)
		}
		return strings.TrimRight(string(data), "\r\n"), nil
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := stdinLines(cmd).ReadString('\n')
		if err != nil && line == "" {
			return "", errors.New("no password given (use --password-file)")
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(b), nil
}

var loginEmail string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in as an admin and store the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := readPassword(cmd, "Password: ")
		if err != nil {
			return err
		}
		if err := validate.Login(loginEmail, password); err != nil {
			printFieldErrors(cmd, err)
			return errors.New("login: invalid input")
		}

		flow := startAuthFlow(cmd.Context(), nil, cmd.OutOrStdout())
		flow.emit(auth.EventSignInStarted, nil)
		sess, err := client.New(cfg.ServerURL).SignIn(cmd.Context(), loginEmail, password)
		if err != nil {
			flow.emit(auth.EventSignInFailed, nil)
			flow.finish()
			if errors.Is(err, errs.ErrInvalidCredentials) {
				return errors.New("login: email atau password salah")
			}
			return fmt.Errorf("login: %w", err)
		}
		flow.emit(auth.EventSignedIn, sess)
		if err := identityStore().SaveSession(flow.finish()); err != nil {
			return fmt.Errorf("login: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s until %s\n", sess.Email, sess.ExpiresAt.Local().Format("2006-01-02 15:04"))
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		ids := identityStore()
		sess, err := ids.LoadSession()
		if errors.Is(err, identity.ErrNoSession) {
			fmt.Fprintln(cmd.OutOrStdout(), "Not signed in")
			return nil
		}
		if err != nil {
			return err
		}
		flow := startAuthFlow(cmd.Context(), sess, cmd.OutOrStdout())
		if err := client.New(cfg.ServerURL, client.WithSession(sess)).SignOut(cmd.Context()); err != nil {
			flow.finish()
			return fmt.Errorf("logout: %w", err)
		}
		flow.emit(auth.EventSignedOut, nil)
		return ids.SaveSession(flow.finish())
	},
}

var recoverEmail string

var recoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "Request a password recovery link",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validate.RecoveryEmail(recoverEmail); err != nil {
			printFieldErrors(cmd, err)
			return errors.New("recover: invalid email")
		}
		if err := client.New(cfg.ServerURL).RequestRecovery(cmd.Context(), recoverEmail); err != nil {
			return fmt.Errorf("recover: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Link reset password telah dikirim. Jalankan helpdesk reset-password --token TOKEN.")
		return nil
	},
}

var resetToken string

var resetPasswordCmd = &cobra.Command{
	Use:   "reset-password",
	Short: "Set a new password with a recovery token",
	RunE: func(cmd *cobra.Command, args []string) error {
		if resetToken == "" {
			return errors.New("reset-password: --token is required")
		}
		flow := startAuthFlow(cmd.Context(), nil, cmd.OutOrStdout())
		flow.emit(auth.EventPasswordRecovery, nil)

		password, err := readPassword(cmd, "New password: ")
		if err == nil && (passwordFile == "" || passwordFile == "-") {
			var confirm string
			if confirm, err = readPassword(cmd, "Confirm password: "); err == nil {
				err = validate.PasswordReset(password, confirm)
			}
		} else if err == nil {
			err = validate.PasswordReset(password, password)
		}
		if err != nil {
			flow.emit(auth.EventSignedOut, nil)
			flow.finish()
			printFieldErrors(cmd, err)
			return fmt.Errorf("reset-password: %w", err)
		}

		err = client.New(cfg.ServerURL).UpdatePassword(cmd.Context(), resetToken, password, password)
		switch {
		case errors.Is(err, errs.ErrTokenExpired), errors.Is(err, errs.ErrUnauthenticated):
			flow.emit(auth.EventRecoveryInvalid, nil)
			flow.finish()
			return errors.New("reset-password: link is invalid or expired, request a new one with helpdesk recover")
		case err != nil:
			flow.emit(auth.EventSignedOut, nil)
			flow.finish()
			return fmt.Errorf("reset-password: %w", err)
		}
		flow.emit(auth.EventUserUpdated, nil)
		flow.finish()
		fmt.Fprintln(cmd.OutOrStdout(), "Password diperbarui. Silakan login kembali.")
		return nil
	},
}

var registerOpts struct {
	name  string
	email string
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an admin account",
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := readPassword(cmd, "Password: ")
		if err != nil {
			return err
		}
		confirm := password
		if passwordFile == "" || passwordFile == "-" {
			if confirm, err = readPassword(cmd, "Confirm password: "); err != nil {
				return err
			}
		}
		if err := validate.Register(registerOpts.name, registerOpts.email, password, confirm); err != nil {
			printFieldErrors(cmd, err)
			return errors.New("register: invalid input")
		}
		p, err := client.New(cfg.ServerURL).SignUp(cmd.Context(), registerOpts.name, registerOpts.email, password, confirm)
		if err != nil {
			return fmt.Errorf("register: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Registered %s as %s. Sign in with helpdesk login.\n", p.Email, p.Role)
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in admin",
	RunE: func(cmd *cobra.Command, args []string) error {
		cl, _, err := adminClient()
		if err != nil {
			return err
		}
		info, err := cl.Session(cmd.Context())
		if err != nil {
			return fmt.Errorf("whoami: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> %s\n", info.Profile.Name, info.Profile.Email, info.Profile.Role)
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "admin email")
	_ = loginCmd.MarkFlagRequired("email")
	registerCmd.Flags().StringVar(&registerOpts.name, "name", "", "display name")
	registerCmd.Flags().StringVar(&registerOpts.email, "email", "", "admin email")
	for _, c := range []*cobra.Command{loginCmd, resetPasswordCmd, registerCmd} {
		c.Flags().StringVar(&passwordFile, "password-file", "", "file containing the password, or - to prompt")
	}
	recoverCmd.Flags().StringVar(&recoverEmail, "email", "", "admin email")
	resetPasswordCmd.Flags().StringVar(&resetToken, "token", "", "token from the recovery link")
}
