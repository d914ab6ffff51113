package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/templui/portfolio/internal/client"
)

func signinCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in and remember the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readSecret("Password: ")
			if err != nil {
				return err
			}

			err = current.store.SignIn(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			fmt.Printf("Signed in as %s\n", current.store.Snapshot().User.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func signupCmd() *cobra.Command {
	var name, email string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readSecret("Password: ")
			if err != nil {
				return err
			}
			confirm, err := readSecret("Confirm password: ")
			if err != nil {
				return err
			}
			if password != confirm {
				return errors.New("passwords do not match")
			}

			err = current.store.SignUp(cmd.Context(), name, email, password)
			if err != nil {
				return err
			}
			fmt.Printf("Welcome, %s\n", current.store.Snapshot().User.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "account email")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func signoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := current.store.SignOut(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Println("Signed out")
			return nil
		},
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Check the stored session against the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			session := current.store.CheckAuth(cmd.Context())

			switch client.Guard(session) {
			case client.DecisionAllow:
				fmt.Printf("%s <%s> (id %s)\n", session.User.Name, session.User.Email, session.User.ID)
				return nil
			case client.DecisionRedirect:
				if session.Err != nil && !client.IsUnauthorized(session.Err) {
					return fmt.Errorf("not signed in: %w", session.Err)
				}
				return errors.New("not signed in; run portfolioctl signin")
			default:
				return errors.New("session check did not complete")
			}
		},
	}
}

// requireSession runs the startup check and fails unless it settles on a
// signed-in user.
func requireSession(cmd *cobra.Command) error {
	session := current.store.CheckAuth(cmd.Context())
	if client.Guard(session) != client.DecisionAllow {
		return errors.New("not signed in; run portfolioctl signin")
	}
	return nil
}

func passwdCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "passwd",
		Short: "Change the password of the signed-in account",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := requireSession(cmd)
			if err != nil {
				return err
			}

			currentPassword, err := readSecret("Current password: ")
			if err != nil {
				return err
			}
			newPassword, err := readSecret("New password: ")
			if err != nil {
				return err
			}

			err = current.store.ChangePassword(cmd.Context(), currentPassword, newPassword)
			if err != nil {
				return err
			}
			fmt.Println("Password updated")
			return nil
		},
	}
}

func forgotPasswordCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "forgot-password",
		Short: "Request a password reset link by email",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := current.store.ForgotPassword(cmd.Context(), email)
			if err != nil {
				return err
			}
			fmt.Println("If the address is registered, a reset link is on its way")
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func resetPasswordCmd() *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Set a new password with the token from a reset link",
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readSecret("New password: ")
			if err != nil {
				return err
			}

			err = current.store.ResetPassword(cmd.Context(), token, password)
			if err != nil {
				return err
			}
			fmt.Println("Password reset; sign in with the new password")
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "token from the reset link")
	_ = cmd.MarkFlagRequired("token")
	return cmd
}
