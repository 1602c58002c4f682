package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/catlog/internal/client/router"
)

// printlnFn and printFn are test seams for user-facing output. In tests,
// replace them with stubs.
var (
	printlnFn = fmt.Println
	printFn   = fmt.Print
)

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Navigate(ctx context.Context, path string) error
	Show(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	Upload(ctx context.Context, id, image string) error
	Whoami(ctx context.Context) error
	Logout(ctx context.Context) error
}

const (
	helpAnonymous = "Available commands: login, register, home, list, go <path>, whoami, exit"
	helpLoggedIn  = "Available commands: home, (l)ist, create, edit <id>, show <id>, delete <id>, upload <id> <image>, go <path>, whoami, logout, exit"
)

// screens maps screen commands to the path they navigate to.
var screens = map[string]string{
	"home":     router.PathHome,
	"list":     router.PathEntryList,
	"l":        router.PathEntryList,
	"create":   router.PathEntryNew,
	"login":    router.PathLogin,
	"register": router.PathRegister,
}

// runREPL reads commands from reader until EOF, "exit"/"quit" or ctx ending.
// Screen commands become navigations; the router and its guard decide what is
// actually shown. Errors from handlers are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for ctx.Err() == nil {
		printFn(fmt.Sprintf("catlog%s> ", statusFn()))
		line, err := readLine(reader)
		if err != nil {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if path, ok := screens[cmd]; ok {
			report(a.Navigate(ctx, path))
			continue
		}

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpLoggedIn)
			} else {
				printlnFn(helpAnonymous)
			}

		case "go":
			if len(args) != 1 {
				printlnFn("Usage: go <path>")
				continue
			}
			report(a.Navigate(ctx, args[0]))

		case "edit":
			if len(args) != 1 {
				printlnFn("Usage: edit <id>")
				continue
			}
			report(a.Navigate(ctx, "/entry/edit/"+args[0]))

		case "show":
			if len(args) != 1 {
				printlnFn("Usage: show <id>")
				continue
			}
			report(a.Show(ctx, args[0]))

		case "delete":
			if len(args) != 1 {
				printlnFn("Usage: delete <id>")
				continue
			}
			report(a.Delete(ctx, args[0]))

		case "upload":
			if len(args) != 2 {
				printlnFn("Usage: upload <id> <image path or s3://bucket/key>")
				continue
			}
			report(a.Upload(ctx, args[0], args[1]))

		case "whoami":
			report(a.Whoami(ctx))

		case "logout":
			report(a.Logout(ctx))

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}

func report(err error) {
	if err != nil {
		printlnFn("Error:", err)
	}
}
