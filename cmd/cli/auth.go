package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Curious-3/EchoesOfArt-sub000/internal/cli"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Register, verify and sign in",
}

var (
	registerName string
	registerDOB  string
	resendOTP    bool
)

var registerCmd = &cobra.Command{
	Use:   "register <email>",
	Short: "Create an account; a verification code is emailed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := readPassword("Password: ")
		if err != nil {
			return err
		}
		c, err := client()
		if err != nil {
			return err
		}
		msg, err := c.Register(args[0], password, registerName, registerDOB)
		if err != nil {
			return err
		}
		p := cli.NewPrinter()
		p.Success("%s", msg)
		p.Info("Run 'echoes auth verify %s <code>' with the emailed code", args[0])
		return nil
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify <email> [code]",
	Short: "Confirm an email address with its one-time code",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := client()
		if err != nil {
			return err
		}
		p := cli.NewPrinter()
		if resendOTP {
			if err := c.ResendOTP(args[0]); err != nil {
				return err
			}
			p.Success("A new code was sent to %s", args[0])
			return nil
		}
		if len(args) < 2 {
			return fmt.Errorf("a code is required unless --resend is set")
		}
		if err := c.VerifyEmail(args[0], args[1]); err != nil {
			return err
		}
		p.Success("Email verified. You can now log in.")
		return nil
	},
}

var loginCmd = &cobra.Command{
	Use:   "login <email>",
	Short: "Sign in and store the session token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := readPassword("Password: ")
		if err != nil {
			return err
		}
		c, err := client()
		if err != nil {
			return err
		}
		res, err := c.Login(args[0], password)
		if err != nil {
			return err
		}
		if err := cli.SaveCredentials(&cli.Credentials{
			Token:     res.Token,
			ExpiresAt: res.ExpiresAt,
			UserID:    res.User.ID,
			Name:      res.User.Name,
			Email:     res.User.Email,
		}); err != nil {
			return fmt.Errorf("failed to save credentials: %w", err)
		}
		cli.Logger().Info("Logged in", "user", res.User.ID)
		cli.NewPrinter().Success("Logged in as %s (session until %s)", res.User.Email, res.ExpiresAt.Local().Format(time.RFC1123))
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cli.DeleteCredentials(); err != nil {
			return err
		}
		cli.NewPrinter().Success("Logged out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := client()
		if err != nil {
			return err
		}
		user, err := c.Me()
		if err != nil {
			return err
		}
		p := cli.NewPrinter()
		if p.JSON() {
			return p.Print(user)
		}
		return p.Print(map[string]interface{}{
			"id":        user.ID,
			"name":      user.Name,
			"email":     user.Email,
			"verified":  user.IsVerified,
			"followers": user.FollowerCount,
			"following": user.FollowingCount,
		})
	},
}

func init() {
	registerCmd.Flags().StringVar(&registerName, "name", "", "Display name")
	registerCmd.Flags().StringVar(&registerDOB, "dob", "", "Date of birth (YYYY-MM-DD)")
	_ = registerCmd.MarkFlagRequired("dob")
	verifyCmd.Flags().BoolVar(&resendOTP, "resend", false, "Send a fresh code instead of verifying")

	authCmd.AddCommand(registerCmd, verifyCmd, loginCmd, logoutCmd, whoamiCmd)
}

// readPassword prompts without echo on a terminal and reads a line otherwise.
func readPassword(prompt string) (string, error) {
	if env := os.Getenv("ECHOES_PASSWORD"); env != "" {
		return env, nil
	}
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, prompt)
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		return string(raw), err
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
