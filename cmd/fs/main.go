package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/File-Sharing-BondBridg/Storage-Platform/internal/fsclient"
)

const tokenFileName = ".fs-token"

var defaultFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "file-host",
		Usage:   "Base URL of the file service",
		Value:   "http://localhost:8080",
		Sources: cli.EnvVars("FS_FILE_HOST"),
	},
	&cli.StringFlag{
		Name:    "user-host",
		Usage:   "Base URL of the user service",
		Value:   "http://localhost:8081",
		Sources: cli.EnvVars("FS_USER_HOST"),
	},
}

func tokenPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, tokenFileName), nil
}

func savedToken() string {
	path, err := tokenPath()
	if err != nil {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func newClient(c *cli.Command) *fsclient.Client {
	return fsclient.New(c.String("file-host"), c.String("user-host"), savedToken())
}

func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	if term.IsTerminal(int(os.Stdin.Fd())) {
		pw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		return string(pw), err
	}
	var pw string
	_, err := fmt.Scanln(&pw)
	return pw, err
}

func main() {
	root := &cli.Command{
		Name:  "fs",
		Usage: "Command line client for the storage platform",
		Commands: []*cli.Command{
			loginCmd(),
			logoutCmd(),
			signupCmd(),
			whoamiCmd(),
			usageCmd(),
			fileCmd(),
		},
	}

	if err := root.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func loginCmd() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Authenticate and store a token",
		Flags: append(defaultFlags,
			&cli.StringFlag{Name: "email", Usage: "Account email", Required: true},
			&cli.StringFlag{Name: "password", Usage: "Account password (prompted when omitted)"},
		),
		Action: func(ctx context.Context, c *cli.Command) error {
			password := c.String("password")
			if password == "" {
				var err error
				password, err = readPassword("Password: ")
				if err != nil {
					return err
				}
			}

			client := newClient(c)
			token, err := client.GetToken(ctx, c.String("email"), password)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}

			path, err := tokenPath()
			if err != nil {
				return err
			}
			if err := os.WriteFile(path, []byte(token.AccessToken), 0600); err != nil {
				return fmt.Errorf("failed to store token: %w", err)
			}
			fmt.Println("Logged in")
			return nil
		},
	}
}

func logoutCmd() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "Discard the stored token",
		Action: func(_ context.Context, _ *cli.Command) error {
			path, err := tokenPath()
			if err != nil {
				return err
			}
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				return err
			}
			fmt.Println("Logged out")
			return nil
		},
	}
}

func signupCmd() *cli.Command {
	return &cli.Command{
		Name:  "signup",
		Usage: "Register a new account",
		Flags: append(defaultFlags,
			&cli.StringFlag{Name: "username", Usage: "Display name", Required: true},
			&cli.StringFlag{Name: "email", Usage: "Account email", Required: true},
			&cli.StringFlag{Name: "password", Usage: "Account password (prompted when omitted)"},
		),
		Action: func(ctx context.Context, c *cli.Command) error {
			password := c.String("password")
			if password == "" {
				var err error
				password, err = readPassword("Password: ")
				if err != nil {
					return err
				}
			}

			client := newClient(c)
			view, err := client.CreateUser(ctx, c.String("username"), c.String("email"), password)
			if err != nil {
				return fmt.Errorf("signup failed: %w", err)
			}
			fmt.Printf("Created account %s (%s), role %s\n", view.Username, view.Email, view.Role)
			return nil
		},
	}
}

func whoamiCmd() *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "Show the authenticated account",
		Flags: defaultFlags,
		Action: func(ctx context.Context, c *cli.Command) error {
			view, err := newClient(c).GetMyInfo(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("%s <%s>\nid:        %s\nrole:      %s\nallowance: %d bytes\nactive:    %v\n",
				view.Username, view.Email, view.UserID, view.Role, view.StorageAllowance, view.IsActive)
			return nil
		},
	}
}

func usageCmd() *cli.Command {
	return &cli.Command{
		Name:  "usage",
		Usage: "Show total stored bytes",
		Flags: defaultFlags,
		Action: func(ctx context.Context, c *cli.Command) error {
			used, err := newClient(c).GetStorageUsed(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("%d bytes used\n", used)
			return nil
		},
	}
}

func fileCmd() *cli.Command {
	return &cli.Command{
		Name:  "file",
		Usage: "Work with stored files",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List your files",
				Flags: append(defaultFlags,
					&cli.IntFlag{Name: "offset", Value: 0},
					&cli.IntFlag{Name: "limit", Value: 10},
					&cli.StringFlag{Name: "sort", Usage: "Sort key: filename, uploaded_at or size", Value: "uploaded_at"},
					&cli.BoolFlag{Name: "desc", Usage: "Sort descending"},
				),
				Action: func(ctx context.Context, c *cli.Command) error {
					files, err := newClient(c).GetFileList(ctx, int(c.Int("offset")), int(c.Int("limit")), c.String("sort"), c.Bool("desc"))
					if err != nil {
						return err
					}
					w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
					fmt.Fprintln(w, "NAME\tSIZE\tUPLOADED\tSCAN")
					for _, f := range files {
						fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", f.Filename, f.Size, f.UploadedAt.Format("2006-01-02 15:04"), f.ScanStatus)
					}
					return w.Flush()
				},
			},
			{
				Name:      "search",
				Usage:     "Search your filenames with a regex pattern",
				ArgsUsage: "<pattern>",
				Flags: append(defaultFlags,
					&cli.IntFlag{Name: "limit", Value: 10},
				),
				Action: func(ctx context.Context, c *cli.Command) error {
					if c.Args().Len() != 1 {
						return fmt.Errorf("expected exactly one pattern argument")
					}
					files, err := newClient(c).SearchFiles(ctx, c.Args().First(), int(c.Int("limit")))
					if err != nil {
						return err
					}
					for _, f := range files {
						fmt.Println(f.Filename)
					}
					return nil
				},
			},
			{
				Name:      "upload",
				Usage:     "Upload a local file",
				ArgsUsage: "<path>",
				Flags:     defaultFlags,
				Action: func(ctx context.Context, c *cli.Command) error {
					if c.Args().Len() != 1 {
						return fmt.Errorf("expected exactly one path argument")
					}
					path := c.Args().First()
					f, err := os.Open(path)
					if err != nil {
						return err
					}
					defer f.Close()

					meta, err := newClient(c).UploadFile(ctx, path, f)
					if err != nil {
						return fmt.Errorf("upload failed: %w", err)
					}
					fmt.Printf("Uploaded %s (%d bytes, md5 %s)\n", meta.Filename, meta.Size, meta.MD5)
					return nil
				},
			},
			{
				Name:      "download",
				Usage:     "Download one of your files",
				ArgsUsage: "<file name>",
				Flags: append(defaultFlags,
					&cli.StringFlag{Name: "out", Usage: "Destination path (defaults to the file name)"},
				),
				Action: func(ctx context.Context, c *cli.Command) error {
					if c.Args().Len() != 1 {
						return fmt.Errorf("expected exactly one file name argument")
					}
					name := c.Args().First()
					out := c.String("out")
					if out == "" {
						out = filepath.Base(name)
					}

					dst, err := os.Create(out)
					if err != nil {
						return err
					}
					defer dst.Close()

					if err := newClient(c).DownloadFile(ctx, name, dst); err != nil {
						os.Remove(out)
						return fmt.Errorf("download failed: %w", err)
					}
					fmt.Printf("Saved %s\n", out)
					return nil
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete one of your files",
				ArgsUsage: "<file name>",
				Flags:     defaultFlags,
				Action: func(ctx context.Context, c *cli.Command) error {
					if c.Args().Len() != 1 {
						return fmt.Errorf("expected exactly one file name argument")
					}
					if err := newClient(c).DeleteFile(ctx, c.Args().First()); err != nil {
						return fmt.Errorf("delete failed: %w", err)
					}
					fmt.Println("Deleted")
					return nil
				},
			},
		},
	}
}
