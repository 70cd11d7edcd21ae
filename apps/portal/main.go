// Command portal is a terminal client for the shiken API. It keeps its
// session in a small file store so a restart resumes where the user left
// off, permissions included.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/jukulab/shiken/core/permission"
	"github.com/jukulab/shiken/core/session"
	"github.com/jukulab/shiken/services/apiclient"
	logsvc "github.com/jukulab/shiken/services/logger"
	"github.com/jukulab/shiken/storage/kv"
)

func main() {
	baseURL := os.Getenv("SHIKEN_API_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}

	home, err := os.UserHomeDir()
	if err != nil {
		log.Fatal(err)
	}
	store, err := kv.OpenFileStore(filepath.Join(home, ".shiken", "session.json"))
	if err != nil {
		log.Fatal(err)
	}

	bus := permission.NewBus()
	cancel := bus.Subscribe(func(permission.Changed) {
		fmt.Println("\n* your permissions were updated *")
	})
	defer cancel()

	mgr := session.NewManager(apiclient.New(baseURL), store, bus, logsvc.NewNopLogger())
	defer mgr.Close()

	ctx := context.Background()
	mgr.Initialize(ctx)

	if usr := mgr.Current(); usr != nil {
		fmt.Printf("welcome back, %s\n", usr.Name)
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		switch cmd := strings.TrimSpace(scanner.Text()); cmd {
		case "login":
			login(ctx, mgr, scanner)
		case "logout":
			mgr.Logout()
			fmt.Println("logged out")
		case "whoami":
			whoami(mgr)
		case "exit", "quit":
			return
		case "":
		default:
			fmt.Printf("unknown command %q; try: login, logout, whoami, exit\n", cmd)
		}
	}
}

func login(ctx context.Context, mgr *session.Manager, scanner *bufio.Scanner) {
	fmt.Print("username: ")
	if !scanner.Scan() {
		return
	}
	username := strings.TrimSpace(scanner.Text())

	fmt.Print("password: ")
	pwd, err := term.ReadPassword(syscall.Stdin)
	fmt.Println()
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	usr, err := mgr.Login(ctx, username, string(pwd))
	if err != nil {
		fmt.Println("login failed:", err)
		return
	}
	fmt.Printf("hello, %s\n", usr.Name)
	whoami(mgr)
}

func whoami(mgr *session.Manager) {
	usr := mgr.Current()
	if usr == nil {
		fmt.Println("not logged in")
		return
	}
	fmt.Printf("%s (%s)\n", usr.Name, usr.Role)
	if usr.ClassroomName != "" {
		fmt.Printf("classroom: %s\n", usr.ClassroomName)
	}
	for _, cap := range permission.AllCapabilities {
		fmt.Printf("  %-22s %v\n", cap, mgr.Can(cap))
	}
}
