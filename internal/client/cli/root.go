package cli

import (
	"context"
	"fmt"
	"strings"
)

func (a *App) getStatus() string {
	s := ""
	if a.userName != "" {
		s = a.userName + " "
	}
	if a.mode != ModeUnknown {
		s = s + string(a.mode)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

// Root runs the interactive command loop.
func (a *App) Root(ctx context.Context) {
	fmt.Println("Welcome to marksync CLI (type 'help' for commands)")

	a.Login(ctx)

	for {
		fmt.Printf("ms %s> ", a.getStatus())
		line, err := a.reader.ReadString('\n')
		if err != nil {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Println("Available commands: fill <assessment>, outbox, sync, review, grade <id> <field> <marks>, schools, assessments, logout, exit")
			} else {
				fmt.Println("Available commands: login, exit")
			}
		case "login":
			a.Login(ctx)
		case "logout":
			a.Logout(ctx)
		case "fill":
			a.Fill(ctx, args)
		case "sync":
			a.Sync(ctx)
		case "assessments":
			a.Assessments(ctx)
		case "outbox":
			a.Outbox(ctx)
		case "review":
			a.Review(ctx)
		case "grade":
			a.Grade(ctx, args)
		case "schools":
			a.Schools(ctx)
		case "exit", "quit":
			fmt.Println("Bye!")
			return
		default:
			fmt.Println("Unknown command:", cmd)
		}
	}
}
