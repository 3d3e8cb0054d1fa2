package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dayuer/simplex-bot-go/internal/client"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show daemon version, profile, address, contacts and groups",
	RunE:  runInfo,
}

var infoCreateAddress bool

func init() {
	infoCmd.Flags().BoolVar(&infoCreateAddress, "create-address", false, "Create a contact address when none exists")
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	c, err := connectClient(cmd.Context(), nil)
	if err != nil {
		return err
	}
	defer c.Disconnect()

	return printSummary(cmd.Context(), os.Stdout, c, infoCreateAddress)
}

// printSummary prints the startup state of the daemon.
func printSummary(ctx context.Context, w io.Writer, c *client.Client, createAddress bool) error {
	version, err := c.Version(ctx)
	if err != nil {
		return err
	}
	profile, err := c.Profile(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "🤖 simplexbot Status")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Daemon: %s (version %s)\n", cfg.Client.URL, version)
	fmt.Fprintf(w, "Profile: %s\n", profile.Name)
	fmt.Fprintf(w, "Preferences: %s\n", formatPrefs(profile.Preferences))

	addr, ok, err := c.UserAddress(ctx)
	if err != nil {
		return err
	}
	if !ok && createAddress {
		if addr, err = c.CreateUserAddress(ctx); err != nil {
			return err
		}
		ok = true
	}
	if ok {
		fmt.Fprintf(w, "Address: %s\n", addr)
	} else {
		fmt.Fprintln(w, "Address: (none)")
	}

	contacts, err := c.Contacts(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\nContacts (%d):\n", len(contacts))
	for _, ct := range contacts {
		fmt.Fprintf(w, "  [%d] %s  %s\n", ct.ID, ct.Name, formatPrefs(ct.MergedPreferences))
	}

	groups, err := c.Groups(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\nGroups (%d):\n", len(groups))
	for _, g := range groups {
		fmt.Fprintf(w, "  [%d] %s  as %s (%s), %d members\n", g.ID, g.Name, g.MemberName, g.MemberRole, g.CurrentMembers)
	}

	network, err := c.Network(ctx, client.NetworkSettings{})
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\nSOCKS Mode: %s\n", network.SocksMode)
	return nil
}

func formatPrefs(prefs map[string]bool) string {
	if len(prefs) == 0 {
		return "-"
	}
	keys := make([]string, 0, len(prefs))
	for k := range prefs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + " " + yesNo(prefs[k])
	}
	return strings.Join(parts, ", ")
}
