package cli

import (
	"fmt"
	"io"
)

// BashCompletion is the bash completion script for lifectl.
const BashCompletion = `#!/bin/bash
# Bash completion for lifectl

_lifectl_completion() {
    local cur prev
    COMPREPLY=()
    cur="${COMP_WORDS[COMP_CWORD]}"
    prev="${COMP_WORDS[COMP_CWORD-1]}"

    local commands="new get next increment final end watch completion"

    case "${prev}" in
        -server|--server)
            return 0
            ;;
        -file|--file)
            COMPREPLY=( $(compgen -f -- ${cur}) )
            return 0
            ;;
        new)
            COMPREPLY=( $(compgen -W "-file -width -height -density -seed" -- ${cur}) )
            return 0
            ;;
        completion)
            COMPREPLY=( $(compgen -W "bash zsh fish" -- ${cur}) )
            return 0
            ;;
    esac

    COMPREPLY=( $(compgen -W "${commands} -server -timeout" -- ${cur}) )
    return 0
}

complete -F _lifectl_completion lifectl
`

// ZshCompletion is the zsh completion script for lifectl.
const ZshCompletion = `#compdef lifectl

_lifectl() {
    local -a commands
    commands=(
        'new:Create a board from a pattern file or at random'
        'get:Show a stored board'
        'next:Advance a board by one generation'
        'increment:Advance a board by N generations'
        'final:Advance a board up to the increment limit'
        'end:Delete a board'
        'watch:Stream N generations of a board'
        'completion:Generate shell completion script'
    )

    _arguments -C \
        '-server[Game server base URL]:url:' \
        '-timeout[Request timeout]:duration:' \
        '1: :->command' \
        '*:: :->args'

    case $state in
        command)
            _describe 'command' commands
            ;;
        args)
            case $words[1] in
                new)
                    _arguments '-file[Pattern file]:file:_files' '-width[Width]:n:' '-height[Height]:n:' '-density[Density]:d:' '-seed[Seed]:n:'
                    ;;
                completion)
                    _values 'shell' bash zsh fish
                    ;;
            esac
            ;;
    esac
}

_lifectl "$@"
`

// FishCompletion is the fish completion script for lifectl.
const FishCompletion = `# Fish completion for lifectl

complete -c lifectl -f -n "__fish_use_subcommand" -a "new" -d "Create a board"
complete -c lifectl -f -n "__fish_use_subcommand" -a "get" -d "Show a stored board"
complete -c lifectl -f -n "__fish_use_subcommand" -a "next" -d "Advance one generation"
complete -c lifectl -f -n "__fish_use_subcommand" -a "increment" -d "Advance N generations"
complete -c lifectl -f -n "__fish_use_subcommand" -a "final" -d "Advance up to the increment limit"
complete -c lifectl -f -n "__fish_use_subcommand" -a "end" -d "Delete a board"
complete -c lifectl -f -n "__fish_use_subcommand" -a "watch" -d "Stream N generations"
complete -c lifectl -f -n "__fish_use_subcommand" -a "completion" -d "Generate shell completion"

complete -c lifectl -f -n "__fish_seen_subcommand_from new" -o file -r -d "Pattern file"
complete -c lifectl -f -n "__fish_seen_subcommand_from new" -o width -x -d "Random board width"
complete -c lifectl -f -n "__fish_seen_subcommand_from new" -o height -x -d "Random board height"
complete -c lifectl -f -n "__fish_seen_subcommand_from completion" -a "bash zsh fish"

complete -c lifectl -o server -x -d "Game server base URL"
complete -c lifectl -o timeout -x -d "Request timeout"
`

// WriteCompletion writes the completion script for shell to w.
func WriteCompletion(w io.Writer, shell string) error {
	var script string
	switch shell {
	case "bash":
		script = BashCompletion
	case "zsh":
		script = ZshCompletion
	case "fish":
		script = FishCompletion
	default:
		return fmt.Errorf("unsupported shell: %s (supported: bash, zsh, fish)", shell)
	}
	_, err := io.WriteString(w, script)
	return err
}
