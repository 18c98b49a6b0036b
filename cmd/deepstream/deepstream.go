// Package deepstreamcmder
package deepstreamcmder

import (
	"github.com/spf13/cobra"

	authcmder "github.com/papercomputeco/deepstream/cmd/deepstream/auth"
	chatcmder "github.com/papercomputeco/deepstream/cmd/deepstream/chat"
	configcmder "github.com/papercomputeco/deepstream/cmd/deepstream/config"
	servecmder "github.com/papercomputeco/deepstream/cmd/deepstream/serve"
	turnscmder "github.com/papercomputeco/deepstream/cmd/deepstream/turns"
	versioncmder "github.com/papercomputeco/deepstream/cmd/version"
)

const deepstreamLongDesc string = `Deepstream streams chat completions from DeepSeek and
OpenAI-compatible APIs, separating reasoning from content as it arrives.

Commands:
  deepstream chat      Chat interactively in the terminal
  deepstream serve     Run the streaming API server
  deepstream turns     List turns recorded by the server
  deepstream config    Manage persistent configuration
  deepstream auth      Store provider API keys`

const deepstreamShortDesc string = "Deepstream - streaming chat completions"

func NewDeepstreamCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "deepstream",
		Short:         deepstreamShortDesc,
		Long:          deepstreamLongDesc,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .deepstream/ config directory")

	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(turnscmder.NewTurnsCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(authcmder.NewAuthCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
