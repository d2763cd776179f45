// Package main is a terminal client for a running row-store server: it
// signs in, loads the user's space through the same controllers a UI would
// drive, and prints the dashboard and the public feed.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"

	"golang.org/x/oauth2"

	"github.com/sakif/snipspace/internal/controller"
	"github.com/sakif/snipspace/internal/model"
	"github.com/sakif/snipspace/internal/repository/store"
	"github.com/sakif/snipspace/internal/rowstore/rest"
	"github.com/sakif/snipspace/internal/service"
)

func main() {
	serverURL := flag.String("server", "http://localhost:8080", "row-store server URL")
	email := flag.String("email", "", "account email")
	password := flag.String("password", "", "account password")
	signup := flag.Bool("signup", false, "create the account first")
	search := flag.String("search", "", "search query for the dashboard")
	language := flag.String("language", "", "language filter for the dashboard")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	if *email == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "usage: space -email you@example.com -password secret [-signup]")
		os.Exit(2)
	}

	token, user, err := signIn(*serverURL, *email, *password, *signup)
	if err != nil {
		fmt.Fprintln(os.Stderr, "sign in failed:", err)
		os.Exit(1)
	}
	fmt.Printf("signed in as %s (%s)\n\n", user.DisplayName, user.Email)

	tokens := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	client := rest.New(*serverURL, "", tokens)

	snippetRepo := store.NewSnippetStore(client)
	folderRepo := store.NewFolderStore(client)
	snippets := service.NewSnippetService(snippetRepo, logger)
	folders := service.NewFolderService(folderRepo, snippetRepo, logger)
	notify := controller.NewLogNotifier(logger)

	ctx := context.Background()

	space := controller.NewSpaceController(snippets, folders, user.ID, notify)
	if err := space.Load(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "loading space:", err)
		os.Exit(1)
	}
	if *search != "" {
		space.SetSearch(*search)
	}
	if *language != "" {
		space.SetLanguage(*language)
	}

	v := space.View()
	fmt.Printf("your space (%d snippets)\n", v.Total())
	printSnippets("pinned", v.Pinned)
	printSnippets("snippets", v.Filtered)

	folderCtl := controller.NewFoldersController(folders, user.ID, notify)
	if err := folderCtl.Load(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "loading folders:", err)
		os.Exit(1)
	}
	fmt.Println("folders")
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	for _, f := range folderCtl.Visible() {
		fmt.Fprintf(w, "  %s\t%d snippets\n", f.Name, f.SnippetCount)
	}
	w.Flush()
	fmt.Println()

	// The public feed needs no credential.
	publicRepo := store.NewSnippetStore(rest.New(*serverURL, "", nil))
	discover := controller.NewDiscoverController(service.NewSnippetService(publicRepo, logger), notify)
	if err := discover.Load(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "loading public feed:", err)
		os.Exit(1)
	}
	printSnippets("public feed", discover.View())
}

func printSnippets(heading string, snippets []model.Snippet) {
	if len(snippets) == 0 {
		return
	}
	fmt.Println(heading)
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	for _, s := range snippets {
		visibility := "private"
		if s.IsPublic {
			visibility = "public"
		}
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n",
			s.Title, s.Language, visibility, s.CreatedAt.Format("2006-01-02"))
	}
	w.Flush()
	fmt.Println()
}

type sessionResponse struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

func signIn(serverURL, email, password string, signup bool) (string, model.User, error) {
	path := "/auth/signin"
	if signup {
		path = "/auth/signup"
	}

	payload, err := json.Marshal(map[string]string{
		"email":        email,
		"password":     password,
		"display_name": strings.Split(email, "@")[0],
	})
	if err != nil {
		return "", model.User{}, err
	}

	resp, err := http.Post(strings.TrimSuffix(serverURL, "/")+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		return "", model.User{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", model.User{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return "", model.User{}, fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var session sessionResponse
	if err := json.Unmarshal(body, &session); err != nil {
		return "", model.User{}, err
	}
	return session.Token, session.User, nil
}
