package main

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/devayhncoleman/ticketing-platform-qa-portfolio/client"
	"github.com/devayhncoleman/ticketing-platform-qa-portfolio/internal/models"
)

type cliConfig struct {
	APIBaseURL  string `yaml:"api_base_url"`
	IdentityURL string `yaml:"identity_url"`
	JWKSURL     string `yaml:"jwks_url"`
	StateFile   string `yaml:"state_file"`
}

func loadConfig(path string) cliConfig {
	home, _ := os.UserHomeDir()
	cfg := cliConfig{
		APIBaseURL: "http://localhost:8080",
		StateFile:  filepath.Join(home, ".config", "helpdesk", "state.json"),
	}
	if path == "" {
		path = filepath.Join(home, ".config", "helpdesk", "config.yaml")
	}
	if raw, err := os.ReadFile(path); err == nil {
		yaml.Unmarshal(raw, &cfg)
	}
	if cfg.IdentityURL == "" {
		cfg.IdentityURL = cfg.APIBaseURL + "/identity"
	}
	if cfg.JWKSURL == "" {
		cfg.JWKSURL = cfg.APIBaseURL + "/.well-known/jwks.json"
	}
	return cfg
}

type app struct {
	cfg      cliConfig
	session  *client.SessionStore
	api      *client.API
	idp      *client.IdentityClient
	verifier *client.JWKSVerifier
	nav      client.Navigator
}

func newApp(cfg cliConfig) *app {
	sess := client.NewSessionStore(client.OpenFileStorage(cfg.StateFile))
	sess.Restore()
	return &app{
		cfg:      cfg,
		session:  sess,
		api:      client.NewAPI(cfg.APIBaseURL, sess.Token),
		idp:      client.NewIdentityClient(cfg.IdentityURL),
		verifier: client.NewJWKSVerifier(cfg.JWKSURL),
		nav: client.NavigatorFunc(func(string) {
			fmt.Fprintln(os.Stderr, "Session expired, please sign in again.")
		}),
	}
}

func main() {
	flags := pflag.NewFlagSet("helpdesk", pflag.ExitOnError)
	configPath := flags.String("config", "", "path to config file")
	// Stop at the subcommand so its flags stay in Args().
	flags.SetInterspersed(false)
	flags.Parse(os.Args[1:])

	args := flags.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	a := newApp(loadConfig(*configPath))
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var err error
	switch args[0] {
	case "login":
		err = a.login(ctx, args[1:])
	case "logout":
		a.session.Logout()
		fmt.Println("Signed out.")
	case "signup":
		err = a.signup(ctx, args[1:])
	case "confirm":
		err = a.confirm(ctx, args[1:])
	case "whoami":
		err = a.whoami(ctx)
	case "tickets":
		err = a.tickets(ctx, args[1:])
	case "comment":
		err = a.comment(ctx, args[1:])
	case "users":
		err = a.users(ctx, args[1:])
	case "techs":
		err = a.techs(ctx)
	case "summary":
		err = a.summary(ctx)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "helpdesk:", client.SurfaceMessage(err))
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: helpdesk <command> [flags]

commands:
  login       --email --password
  logout
  signup      --email --password --first --last
  confirm     --email --code
  whoami
  tickets     list|create|show|assign|set-status|delete
  comment     <ticket-id> --message [--internal] [--attach file ...]
  users       list|set-role
  techs
  summary`)
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("login", pflag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	fs.Parse(args)

	if err := client.SignIn(ctx, a.idp, a.api, a.verifier, a.session, *email, *password); err != nil {
		return err
	}
	if perr := a.session.PersistenceErr(); perr != nil {
		fmt.Fprintln(os.Stderr, "warning: session not saved:", perr)
	}
	u := a.session.User()
	fmt.Printf("Signed in as %s (%s)\n", u.Email, u.Role)
	return nil
}

func (a *app) signup(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("signup", pflag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	first := fs.String("first", "", "first name")
	last := fs.String("last", "", "last name")
	fs.Parse(args)

	if err := a.idp.SignUp(ctx, *email, *password, *first, *last); err != nil {
		return err
	}
	fmt.Println("Account created. Check your email for a confirmation code, then run: helpdesk confirm")
	return nil
}

func (a *app) confirm(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("confirm", pflag.ExitOnError)
	email := fs.String("email", "", "account email")
	code := fs.String("code", "", "confirmation code")
	fs.Parse(args)

	if err := a.idp.ConfirmSignUp(ctx, *email, *code); err != nil {
		return err
	}
	fmt.Println("Account confirmed. You can sign in now.")
	return nil
}

func (a *app) whoami(ctx context.Context) error {
	if !a.session.Authenticated() {
		fmt.Println("Not signed in.")
		return nil
	}
	me, err := a.api.Me(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s %s <%s> role=%s id=%s\n", me.FirstName, me.LastName, me.Email, me.Role, me.ID)
	return nil
}

func (a *app) tickets(ctx context.Context, args []string) error {
	if len(args) == 0 {
		args = []string{"list"}
	}
	switch args[0] {
	case "list":
		fs := pflag.NewFlagSet("tickets list", pflag.ExitOnError)
		status := fs.String("status", "", "filter by status")
		search := fs.String("search", "", "substring filter")
		fs.Parse(args[1:])

		list := client.NewTicketList(a.api, a.session, a.nav)
		list.SetSearch(*search)
		if err := list.Refresh(ctx, client.Filter{Status: strings.ToUpper(*status), SearchQuery: *search}); err != nil {
			return err
		}
		return printTickets(list.Tickets())
	case "create":
		fs := pflag.NewFlagSet("tickets create", pflag.ExitOnError)
		title := fs.String("title", "", "ticket title")
		description := fs.String("description", "", "ticket description")
		priority := fs.String("priority", "", "LOW, MEDIUM, HIGH or CRITICAL")
		category := fs.String("category", "", "ticket category")
		fs.Parse(args[1:])

		t, err := a.api.CreateTicket(ctx, client.CreateTicketInput{
			Title:       *title,
			Description: *description,
			Priority:    strings.ToUpper(*priority),
			Category:    *category,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Created ticket %s\n", t.ID)
		return nil
	case "show":
		if len(args) < 2 {
			return fmt.Errorf("usage: helpdesk tickets show <ticket-id>")
		}
		thread := client.NewThread(a.api, a.session, a.nav, args[1])
		t, err := thread.LoadTicket(ctx)
		if err != nil {
			return err
		}
		comments, err := thread.LoadComments(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%s  [%s/%s]  %s\n", t.ID, t.Status, t.Priority, t.Title)
		fmt.Printf("  category: %s  assigned: %s\n", t.Category, assignedLabel(*t))
		if t.Resolution != "" {
			fmt.Printf("  resolution: %s\n", t.Resolution)
		}
		fmt.Println("  " + t.Description)
		for _, c := range comments {
			tag := ""
			if c.IsInternal {
				tag = " [internal]"
			}
			fmt.Printf("\n%s (%s)%s\n  %s\n", c.CreatedByName, c.CreatedAt.Format(time.RFC822), tag, c.Content)
			for _, u := range c.Attachments {
				fmt.Println("  attachment:", u)
			}
		}
		return nil
	case "assign":
		fs := pflag.NewFlagSet("tickets assign", pflag.ExitOnError)
		tech := fs.String("tech", "", "technician user id")
		fs.Parse(args[1:])
		rest := fs.Args()
		if len(rest) < 1 || *tech == "" {
			return fmt.Errorf("usage: helpdesk tickets assign <ticket-id> --tech <user-id>")
		}
		t, err := a.api.AssignTicket(ctx, rest[0], *tech)
		if err != nil {
			return err
		}
		fmt.Printf("Assigned %s to %s\n", t.ID, t.AssignedToName)
		return nil
	case "set-status":
		fs := pflag.NewFlagSet("tickets set-status", pflag.ExitOnError)
		status := fs.String("status", "", "new status")
		resolution := fs.String("resolution", "", "resolution text, required for RESOLVED")
		fs.Parse(args[1:])
		rest := fs.Args()
		if len(rest) < 1 || *status == "" {
			return fmt.Errorf("usage: helpdesk tickets set-status <ticket-id> --status <status>")
		}
		fields := map[string]any{"status": strings.ToUpper(*status)}
		if *resolution != "" {
			fields["resolution"] = *resolution
		}
		t, err := a.api.UpdateTicket(ctx, rest[0], fields)
		if err != nil {
			return err
		}
		fmt.Printf("Ticket %s is now %s\n", t.ID, t.Status)
		return nil
	case "delete":
		fs := pflag.NewFlagSet("tickets delete", pflag.ExitOnError)
		hard := fs.Bool("hard", false, "permanently delete (admin only)")
		fs.Parse(args[1:])
		rest := fs.Args()
		if len(rest) < 1 {
			return fmt.Errorf("usage: helpdesk tickets delete <ticket-id>")
		}
		if err := a.api.DeleteTicket(ctx, rest[0], *hard); err != nil {
			return err
		}
		fmt.Println("Deleted.")
		return nil
	}
	return fmt.Errorf("unknown tickets subcommand %q", args[0])
}

func (a *app) comment(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("comment", pflag.ExitOnError)
	message := fs.String("message", "", "comment text")
	internal := fs.Bool("internal", false, "internal note (staff only)")
	attach := fs.StringArray("attach", nil, "image file to attach, repeatable")
	fs.Parse(args)
	rest := fs.Args()
	if len(rest) < 1 {
		return fmt.Errorf("usage: helpdesk comment <ticket-id> --message <text>")
	}

	thread := client.NewThread(a.api, a.session, a.nav, rest[0])
	if len(*attach) > 0 {
		files := make([]client.Attachment, 0, len(*attach))
		for _, path := range *attach {
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			files = append(files, client.Attachment{
				FileName:    filepath.Base(path),
				ContentType: mime.TypeByExtension(filepath.Ext(path)),
				Data:        data,
			})
		}
		if err := thread.UploadAttachments(ctx, files); err != nil {
			return err
		}
	}

	c, err := thread.PostComment(ctx, *message, *internal)
	if err != nil {
		return err
	}
	if c == nil {
		fmt.Println("Nothing to post.")
		return nil
	}
	fmt.Printf("Comment %s added to %s\n", c.ID, c.TicketID)
	return nil
}

func (a *app) users(ctx context.Context, args []string) error {
	if len(args) == 0 {
		args = []string{"list"}
	}
	switch args[0] {
	case "list":
		fs := pflag.NewFlagSet("users list", pflag.ExitOnError)
		q := fs.String("search", "", "name or email substring")
		fs.Parse(args[1:])

		users, err := a.api.ListUsers(ctx, *q)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tEMAIL\tNAME\tROLE")
		for _, u := range users {
			fmt.Fprintf(w, "%s\t%s\t%s %s\t%s\n", u.ID, u.Email, u.FirstName, u.LastName, u.Role)
		}
		return w.Flush()
	case "set-role":
		fs := pflag.NewFlagSet("users set-role", pflag.ExitOnError)
		role := fs.String("role", "", "CUSTOMER, TECH or ADMIN")
		fs.Parse(args[1:])
		rest := fs.Args()
		if len(rest) < 1 || *role == "" {
			return fmt.Errorf("usage: helpdesk users set-role <user-id> --role <role>")
		}
		console := client.NewConsole(a.api, a.session, a.nav)
		if err := console.UpdateUserRole(ctx, rest[0], strings.ToUpper(*role)); err != nil {
			return err
		}
		fmt.Println("Role updated.")
		return nil
	}
	return fmt.Errorf("unknown users subcommand %q", args[0])
}

func (a *app) techs(ctx context.Context) error {
	techs, err := a.api.ListTechnicians(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tROLE")
	for _, t := range techs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.ID, t.Name, t.Email, t.Role)
	}
	return w.Flush()
}

func (a *app) summary(ctx context.Context) error {
	s, err := a.api.Summary(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("open: %d\nresolved last 7 days: %d\nhigh/critical open: %d\n", s.Open, s.Resolved7d, s.HighCriticalOpen)
	return nil
}

func printTickets(tickets []models.Ticket) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tPRIORITY\tASSIGNED\tTITLE")
	for _, t := range tickets {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", t.ID, t.Status, t.Priority, assignedLabel(t), t.Title)
	}
	return w.Flush()
}

func assignedLabel(t models.Ticket) string {
	if t.AssignedTo == models.Unassigned || t.AssignedTo == "" {
		return "-"
	}
	if t.AssignedToName != "" {
		return t.AssignedToName
	}
	return t.AssignedTo
}
