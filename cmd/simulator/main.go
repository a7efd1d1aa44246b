package main

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"github.com/dom/wedge-builds/internal/catalog"
	"github.com/dom/wedge-builds/internal/websocket"
	"github.com/spf13/cobra"
)

var apiURL string

var rootCmd = &cobra.Command{
	Use:   "simulator",
	Short: "Development tool that drives a running wedge-builds server",
	Long: `simulator registers throwaway users and exercises the API so the feed,
votes and push notifications can be checked by hand.

ENVIRONMENT:
  API_URL   Backend API URL (default: http://localhost:8080)`,
	SilenceUsage: true,
}

var populateCmd = &cobra.Command{
	Use:     "populate",
	Short:   "Register users and publish catalog-based builds",
	Example: "  simulator populate --users=3 --builds=4",
	RunE:    runPopulate,
}

var voteCmd = &cobra.Command{
	Use:     "vote",
	Short:   "Register voters who view and upvote the current feed",
	Example: "  simulator vote --users=10 --top=5",
	RunE:    runVote,
}

var timerCmd = &cobra.Command{
	Use:     "timer",
	Short:   "Add a short crafting timer and wait for its push notification",
	Example: "  simulator timer --seconds=5",
	RunE:    runTimer,
}

var (
	userCount     int
	buildsPerUser int
	topN          int
	timerSeconds  int
)

func init() {
	defaultURL := "http://localhost:8080"
	if envURL := os.Getenv("API_URL"); envURL != "" {
		defaultURL = envURL
	}
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", defaultURL, "backend base URL")

	populateCmd.Flags().IntVar(&userCount, "users", 3, "number of users to register")
	populateCmd.Flags().IntVar(&buildsPerUser, "builds", 2, "builds published per user")

	voteCmd.Flags().IntVar(&userCount, "users", 5, "number of voters to register")
	voteCmd.Flags().IntVar(&topN, "top", 5, "how many of the newest builds each voter considers")

	timerCmd.Flags().IntVar(&timerSeconds, "seconds", 5, "timer length in seconds")

	rootCmd.AddCommand(populateCmd, voteCmd, timerCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runPopulate(cmd *cobra.Command, args []string) error {
	cat, err := catalog.Load()
	if err != nil {
		return err
	}
	presets := presetBuilds(cat)
	if len(presets) == 0 {
		return fmt.Errorf("catalog has no characters")
	}

	client := NewAPIClient(apiURL)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Publishing %d builds from %d users...\n\n", userCount*buildsPerUser, userCount)

	next := 0
	for i := 0; i < userCount; i++ {
		user, token, err := client.RegisterUser(fmt.Sprintf("Builder%d", i+1))
		if err != nil {
			fmt.Fprintf(out, "  [%d/%d] FAILED to create user: %v\n", i+1, userCount, err)
			continue
		}

		for j := 0; j < buildsPerUser; j++ {
			content := presets[next%len(presets)]
			next++

			build, err := client.CreateBuild(token, content)
			if err != nil {
				fmt.Fprintf(out, "  [%d/%d] %s FAILED to publish %q: %v\n", i+1, userCount, user.DisplayName, content.BuildName, err)
				continue
			}
			fmt.Fprintf(out, "  [%d/%d] %s published %q (%s)\n", i+1, userCount, user.DisplayName, build.BuildName, build.ID)
		}
	}
	return nil
}

func runVote(cmd *cobra.Command, args []string) error {
	client := NewAPIClient(apiURL)
	out := cmd.OutOrStdout()

	builds, err := client.ListBuilds("newest", topN)
	if err != nil {
		return err
	}
	if len(builds) == 0 {
		fmt.Fprintln(out, "Feed is empty; run 'simulator populate' first.")
		return nil
	}

	for i := 0; i < userCount; i++ {
		user, token, err := client.RegisterUser(fmt.Sprintf("Voter%d", i+1))
		if err != nil {
			fmt.Fprintf(out, "  [%d/%d] FAILED to create user: %v\n", i+1, userCount, err)
			continue
		}

		for _, b := range builds {
			if err := client.RecordView(b.ID.String()); err != nil {
				fmt.Fprintf(out, "  view of %s failed: %v\n", b.ID, err)
			}
			// Roughly half the viewers upvote
			if rand.IntN(2) == 0 {
				continue
			}
			voted, err := client.Vote(token, b.ID.String())
			if err != nil {
				fmt.Fprintf(out, "  %s FAILED to vote on %q: %v\n", user.DisplayName, b.BuildName, err)
				continue
			}
			fmt.Fprintf(out, "  %s upvoted %q (%d votes)\n", user.DisplayName, voted.BuildName, voted.VoteCount)
		}
	}

	popular, err := client.ListBuilds("popular", topN)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "\nMost popular:")
	for i, b := range popular {
		fmt.Fprintf(out, "  %d. %s by %s - %d votes, %d views\n", i+1, b.BuildName, b.Creator, b.VoteCount, b.Views)
	}
	return nil
}

func runTimer(cmd *cobra.Command, args []string) error {
	client := NewAPIClient(apiURL)
	out := cmd.OutOrStdout()

	user, token, err := client.RegisterUser("Crafter")
	if err != nil {
		return err
	}

	conn, err := client.DialPush(token)
	if err != nil {
		return err
	}
	defer conn.Close()

	start := time.Now().UTC()
	n, err := client.AddTimer(token, "Simulated Ingot", start, start.Add(time.Duration(timerSeconds)*time.Second))
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s added timer %s; waiting %ds for the push...\n", user.DisplayName, n.ID, timerSeconds)

	msg, err := WaitFor(conn, websocket.MessageTypeCraftingComplete, time.Duration(timerSeconds+10)*time.Second)
	if err != nil {
		return fmt.Errorf("no crafting notification: %w", err)
	}

	var payload websocket.CraftingCompletePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return err
	}
	fmt.Fprintf(out, "Received %s for %s after %s\n", msg.Type, payload.ItemName, time.Since(start).Round(time.Millisecond))
	return nil
}
