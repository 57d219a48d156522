package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/buttonwatch/buttonwatch/settings"
	"github.com/buttonwatch/buttonwatch/watch"
)

// runConsole drives the interactive menu: configure, select, monitor,
// quit. Invalid input reprompts instead of exiting.
func (a *app) runConsole(ctx context.Context) error {
	st, err := a.openSettings()
	if err != nil {
		return fmt.Errorf("open settings: %w", err)
	}

	hist, err := a.openHistory()
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	if hist != nil {
		defer hist.Close()
	}

	ctrl := a.newController(st, hist)
	go printStatus(ctrl.Status())

	in := bufio.NewScanner(os.Stdin)
	for {
		select {
		case <-ctx.Done():
			ctrl.Stop()
			return nil
		default:
		}

		printMenu(st)
		fmt.Print("> ")
		if !in.Scan() {
			ctrl.Stop()
			return in.Err()
		}

		switch strings.TrimSpace(in.Text()) {
		case "1":
			a.configure(in, st)
		case "2":
			a.selectButtons(ctx, in, ctrl, st)
		case "3":
			a.monitorInteractive(ctx, in, ctrl, st)
		case "4", "q", "quit", "exit":
			ctrl.Stop()
			return nil
		default:
			fmt.Println("Please choose 1-4.")
		}
	}
}

func printMenu(st *settings.Store) {
	fmt.Println()
	fmt.Println("ButtonWatch")
	if url := st.URL(); url != "" {
		fmt.Printf("  page: %s\n", url)
	}
	if sel := st.SelectedButtons(); len(sel) > 0 {
		fmt.Printf("  watching %d buttons, every %.1fs\n", len(sel), st.RefreshInterval())
	}
	fmt.Println("  1) Configure")
	fmt.Println("  2) Select buttons")
	fmt.Println("  3) Start monitoring")
	fmt.Println("  4) Quit")
}

func (a *app) configure(in *bufio.Scanner, st *settings.Store) {
	if url := prompt(in, "Page URL", st.URL()); url != "" {
		if err := st.SetURL(url); err != nil {
			fmt.Printf("Could not save URL: %v\n", err)
		}
	}

	for {
		raw := prompt(in, "Refresh interval (seconds)", fmt.Sprintf("%.1f", st.RefreshInterval()))
		if raw == "" {
			break
		}
		seconds, err := strconv.ParseFloat(raw, 64)
		if err != nil || seconds <= 0 {
			fmt.Println("Enter a positive number of seconds.")
			continue
		}
		if err := st.SetRefreshInterval(seconds); err != nil {
			fmt.Printf("Could not save interval: %v\n", err)
		}
		break
	}

	fmt.Println("Telegram (leave blank to keep the current value):")
	tg := st.Telegram()
	apiID := prompt(in, "  API ID", tg.APIID)
	apiHash := prompt(in, "  API hash", tg.APIHash)
	botToken := prompt(in, "  Bot token", tg.BotToken)
	chatID := prompt(in, "  Chat ID", tg.ChatID)
	if err := st.UpdateTelegram(
		orKeep(apiID, tg.APIID),
		orKeep(apiHash, tg.APIHash),
		orKeep(botToken, tg.BotToken),
		orKeep(chatID, tg.ChatID),
	); err != nil {
		fmt.Printf("Could not save Telegram settings: %v\n", err)
	}
	fmt.Println("Saved.")
}

func (a *app) selectButtons(ctx context.Context, in *bufio.Scanner, ctrl *watch.Controller, st *settings.Store) {
	url := st.URL()
	if a.urlFlag != "" {
		url = a.urlFlag
	}
	if url == "" {
		url = prompt(in, "Page URL", "")
	}
	if url == "" {
		fmt.Println("A page URL is required.")
		return
	}

	fmt.Println("Opening the page. Click the buttons to watch, then press Done.")
	sel, err := ctrl.SelectTargets(ctx, url)
	if err != nil {
		fmt.Printf("Selection failed: %v\n", err)
		return
	}
	if sel.Empty() {
		fmt.Println("No buttons selected.")
		return
	}
	for _, idx := range sel.Indices {
		fmt.Printf("  %d: %s\n", idx+1, sel.Texts[idx])
	}
}

func (a *app) monitorInteractive(ctx context.Context, in *bufio.Scanner, ctrl *watch.Controller, st *settings.Store) {
	url, err := a.sessionURL(st)
	if err != nil {
		fmt.Println("Configure a page URL first.")
		return
	}
	targets := st.SelectedButtons()
	if len(targets) == 0 {
		fmt.Println("Select buttons first.")
		return
	}

	if err := ctrl.Start(ctx, url, a.sessionInterval(st), targets); err != nil {
		fmt.Printf("Could not start monitoring: %v\n", err)
		return
	}

	fmt.Println("Monitoring. Press Enter to stop.")
	in.Scan()
	ctrl.Stop()
}

// prompt reads one trimmed line, showing the current value as a hint.
func prompt(in *bufio.Scanner, label, current string) string {
	if current != "" {
		fmt.Printf("%s [%s]: ", label, current)
	} else {
		fmt.Printf("%s: ", label)
	}
	if !in.Scan() {
		return ""
	}
	return strings.TrimSpace(in.Text())
}

func orKeep(entered, current string) string {
	if entered == "" {
		return current
	}
	return entered
}
