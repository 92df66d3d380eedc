// Package coachctl is an interactive client for the coach service. It
// keeps one SDK session, so the access token lives only in memory and is
// refreshed in the background while the REPL runs.
package coachctl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aussiebroadwan/coach/pkg/coachsdk"
)

type App struct {
	client  *coachsdk.Client
	session *coachsdk.Session

	in           *bufio.Reader
	out          io.Writer
	readPassword func() ([]byte, error)
}

func New(client *coachsdk.Client, in io.Reader, out io.Writer) *App {
	return &App{
		client:       client,
		session:      client.NewSession(),
		in:           bufio.NewReader(in),
		out:          out,
		readPassword: terminalPassword(in),
	}
}

// Run reads commands until exit or end of input. The session is logged out
// on the way out.
func (a *App) Run(ctx context.Context) {
	fmt.Fprintln(a.out, "Coach CLI (type 'help' for commands)")
	defer func() {
		if a.session.SignedIn() {
			_ = a.session.Logout(context.WithoutCancel(ctx))
		}
	}()

	for {
		if ctx.Err() != nil {
			return
		}

		fmt.Fprintf(a.out, "coach %s> ", a.status())
		raw, err := a.in.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || raw == "") {
			return
		}

		fields := strings.Fields(raw)
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "exit" || fields[0] == "quit" {
			fmt.Fprintln(a.out, "Bye!")
			return
		}

		if err := a.dispatch(ctx, fields[0], fields[1:]); err != nil {
			fmt.Fprintln(a.out, "error:", describe(err))
		}
	}
}

func (a *App) status() string {
	if u, ok := a.session.User(); ok {
		return "[" + u.Email + "] "
	}
	return ""
}

func (a *App) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "help":
		a.help()
		return nil
	case "health":
		return a.health(ctx)
	case "signup":
		return a.signup(ctx)
	case "login":
		return a.login(ctx)
	case "logout":
		return a.logout(ctx)
	case "profile":
		return a.profile(ctx)
	case "set":
		return a.set(ctx, args)
	case "avatar":
		return a.avatar(ctx, args)
	case "chat":
		return a.chat(ctx, args)
	case "form":
		return a.form(ctx, args)
	default:
		fmt.Fprintln(a.out, "Unknown command:", cmd)
		return nil
	}
}

func (a *App) help() {
	if a.session.SignedIn() {
		fmt.Fprintln(a.out, "Available commands: profile, set <field> <value>, avatar <url>, chat <message>, form <image-url> [prompt], logout, health, exit")
		fmt.Fprintln(a.out, "Profile fields: name, height_cm, weight_kg, fitness_goal, experience_level")
		return
	}
	fmt.Fprintln(a.out, "Available commands: signup, login, chat <message>, form <image-url> [prompt], health, exit")
}

func (a *App) health(ctx context.Context) error {
	h, err := a.client.Health(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "ok=%t mock=%t\n", h.OK, h.Mock)
	return nil
}

func (a *App) signup(ctx context.Context) error {
	email, err := a.line("Email")
	if err != nil {
		return err
	}
	name, err := a.line("Name")
	if err != nil {
		return err
	}
	pw, err := a.password()
	if err != nil {
		return err
	}

	u, err := a.session.Signup(ctx, coachsdk.SignupRequest{Email: email, Password: pw, Name: name})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Welcome, %s!\n", u.Name)
	return nil
}

func (a *App) login(ctx context.Context) error {
	email, err := a.line("Email")
	if err != nil {
		return err
	}
	pw, err := a.password()
	if err != nil {
		return err
	}

	u, err := a.session.Login(ctx, email, pw)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Signed in as %s\n", u.Email)
	return nil
}

func (a *App) logout(ctx context.Context) error {
	if err := a.session.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Signed out")
	return nil
}

func (a *App) profile(ctx context.Context) error {
	u, err := a.session.Profile(ctx)
	if err != nil {
		return err
	}
	a.printUser(u)
	return nil
}

func (a *App) set(ctx context.Context, args []string) error {
	if len(args) < 2 {
		fmt.Fprintln(a.out, "Usage: set <field> <value>")
		return nil
	}

	req, err := profileUpdate(args[0], strings.Join(args[1:], " "))
	if err != nil {
		return err
	}

	u, err := a.session.UpdateProfile(ctx, req)
	if err != nil {
		return err
	}
	a.printUser(u)
	return nil
}

func (a *App) avatar(ctx context.Context, args []string) error {
	if len(args) != 1 {
		fmt.Fprintln(a.out, "Usage: avatar <url>")
		return nil
	}
	if _, err := a.session.UpdateAvatar(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Avatar updated")
	return nil
}

func (a *App) chat(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(a.out, "Usage: chat <message>")
		return nil
	}
	reply, err := a.session.Chat(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, reply)
	return nil
}

func (a *App) form(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(a.out, "Usage: form <image-url> [prompt]")
		return nil
	}
	reply, err := a.session.AnalyzeForm(ctx, args[0], strings.Join(args[1:], " "))
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, reply)
	return nil
}

func (a *App) printUser(u *coachsdk.User) {
	fmt.Fprintf(a.out, "%s <%s>\n", u.Name, u.Email)
	if u.HeightCM != nil {
		fmt.Fprintf(a.out, "  height_cm:        %d\n", *u.HeightCM)
	}
	if u.WeightKG != nil {
		fmt.Fprintf(a.out, "  weight_kg:        %g\n", *u.WeightKG)
	}
	if u.FitnessGoal != nil {
		fmt.Fprintf(a.out, "  fitness_goal:     %s\n", *u.FitnessGoal)
	}
	if u.ExperienceLevel != nil {
		fmt.Fprintf(a.out, "  experience_level: %s\n", *u.ExperienceLevel)
	}
	if u.AvatarURL != nil {
		fmt.Fprintln(a.out, "  avatar:           set")
	}
}

func profileUpdate(field, value string) (coachsdk.UpdateProfileRequest, error) {
	var req coachsdk.UpdateProfileRequest
	switch field {
	case "name":
		req.Name = &value
	case "height_cm":
		n, err := strconv.Atoi(value)
		if err != nil {
			return req, fmt.Errorf("height_cm must be a whole number")
		}
		req.HeightCM = &n
	case "weight_kg":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return req, fmt.Errorf("weight_kg must be a number")
		}
		req.WeightKG = &f
	case "fitness_goal":
		req.FitnessGoal = &value
	case "experience_level":
		req.ExperienceLevel = &value
	default:
		return req, fmt.Errorf("unknown field %q", field)
	}
	return req, nil
}

// describe turns API errors into the server's message.
func describe(err error) string {
	var apiErr *coachsdk.APIError
	if errors.As(err, &apiErr) {
		if apiErr.IsUnauthorized() && apiErr.Message == "unauthenticated" {
			return apiErr.Message + " (sign in first)"
		}
		return apiErr.Message
	}
	return err.Error()
}
