package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Prompter asks questions on a terminal
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompter reads answers from in and writes questions to out
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// StdPrompter prompts on stdin/stdout
func StdPrompter() *Prompter {
	return NewPrompter(os.Stdin, os.Stdout)
}

func (p *Prompter) readLine() (string, bool) {
	input, err := p.in.ReadString('\n')
	if err != nil && input == "" {
		return "", false
	}
	return strings.TrimSpace(input), true
}

// String asks for a value, returning defaultValue on empty input or EOF
func (p *Prompter) String(prompt, defaultValue string) string {
	if defaultValue != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", prompt, defaultValue)
	} else {
		fmt.Fprintf(p.out, "%s: ", prompt)
	}

	input, ok := p.readLine()
	if !ok || input == "" {
		return defaultValue
	}
	return input
}

// Required asks until a non-empty value is given. On EOF it returns "".
func (p *Prompter) Required(prompt, defaultValue string) string {
	for {
		value := p.String(prompt, defaultValue)
		if value != "" {
			return value
		}
		if _, err := p.in.Peek(1); err != nil {
			return ""
		}
		fmt.Fprintf(p.out, "❌ A value is required.\n")
	}
}

// Choice asks the user to pick one of choices, returning its index
func (p *Prompter) Choice(prompt string, choices []string, defaultChoice int) int {
	fmt.Fprintf(p.out, "\n%s\n", prompt)
	for i, choice := range choices {
		marker := " "
		if i == defaultChoice {
			marker = ">"
		}
		fmt.Fprintf(p.out, " %s %d. %s\n", marker, i+1, choice)
	}

	for {
		input := p.String(fmt.Sprintf("Choose (1-%d)", len(choices)), strconv.Itoa(defaultChoice+1))

		choice, err := strconv.Atoi(input)
		if err != nil || choice < 1 || choice > len(choices) {
			fmt.Fprintf(p.out, "❌ Choice must be between 1 and %d.\n", len(choices))
			if _, err := p.in.Peek(1); err != nil {
				return defaultChoice
			}
			continue
		}

		return choice - 1
	}
}

// YesNo asks a yes/no question
func (p *Prompter) YesNo(prompt string, defaultValue bool) bool {
	defaultStr := "n"
	if defaultValue {
		defaultStr = "y"
	}

	for {
		switch strings.ToLower(p.String(prompt+" (y/n)", defaultStr)) {
		case "y", "yes", "true", "1":
			return true
		case "n", "no", "false", "0":
			return false
		default:
			fmt.Fprintf(p.out, "❌ Please answer with 'y' or 'n'.\n")
			if _, err := p.in.Peek(1); err != nil {
				return defaultValue
			}
		}
	}
}

// PrintHeader prints a formatted header
func PrintHeader(w io.Writer, title string) {
	separator := strings.Repeat("=", 60)
	fmt.Fprintf(w, "\n%s\n", separator)
	fmt.Fprintf(w, "  %s\n", strings.ToUpper(title))
	fmt.Fprintf(w, "%s\n\n", separator)
}
