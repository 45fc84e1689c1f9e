package mozart

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/equinor/radix-common/utils/slice"
	apierrors "github.com/hysds/mozart-go/api/errors"
	"github.com/hysds/mozart-go/models"
)

// PromptInputParams Interactively collects the submitter parameters on
// stdin, coercing each value to its declared type. An empty answer
// keeps the default when one exists, binds nil when the parameter is
// optional, and fails otherwise.
func (t *JobType) PromptInputParams() error {
	return t.promptInputParams(os.Stdin, os.Stdout)
}

func (t *JobType) promptInputParams(in io.Reader, out io.Writer) error {
	if t.schema == nil {
		return apierrors.NewNotInitialized("job type " + t.jobSpec)
	}

	scanner := bufio.NewScanner(in)
	collected := map[string]any{}
	for _, p := range slice.FindAll(t.schema.Params, func(p models.Parameter) bool { return p.From == models.FromSubmitter }) {
		fmt.Fprintf(out, "NAME: %s (%s)", p.Name, parameterType(p))
		if p.Placeholder != "" {
			fmt.Fprintf(out, " (%s)", p.Placeholder)
		}
		fmt.Fprintln(out)

		prompt := "SET VALUE"
		switch p.Type {
		case models.TypeEnum:
			prompt += fmt.Sprintf(". options (%s)", strings.Join(p.Enumerables, ", "))
		case models.TypeBoolean:
			prompt += " (true/false)"
		}
		if p.Default != nil {
			prompt += fmt.Sprintf(".\nSkip to use default (%v)", p.Default)
		}
		fmt.Fprint(out, prompt+": ")

		var answer string
		if scanner.Scan() {
			answer = strings.TrimSpace(scanner.Text())
		}
		if answer == "" {
			if p.Default != nil {
				continue
			}
			if p.Optional {
				collected[p.Name] = nil
				continue
			}
			return apierrors.NewValidationf("parameter %q is required", p.Name)
		}

		value, err := coerceValue(p, answer)
		if err != nil {
			return err
		}
		collected[p.Name] = value
	}
	if err := scanner.Err(); err != nil {
		return apierrors.NewUnknown(err)
	}
	t.mergeInput(collected)
	return nil
}

// coerceValue Converts a textual answer to the parameter's declared type
func coerceValue(p models.Parameter, answer string) (any, error) {
	switch p.Type {
	case models.TypeNumber:
		number, err := strconv.ParseFloat(answer, 64)
		if err != nil {
			return nil, apierrors.NewValidationf("%q is not type: number", answer)
		}
		return number, nil
	case models.TypeBoolean:
		return answer == "true", nil
	case models.TypeEnum:
		if !slice.Any(p.Enumerables, func(choice string) bool { return choice == answer }) {
			return nil, apierrors.NewValidationf("%q is not one of the choices %v", answer, p.Enumerables)
		}
		return answer, nil
	case models.TypeObject:
		var value any
		if err := json.Unmarshal([]byte(answer), &value); err != nil {
			return nil, apierrors.NewValidationf("%q is not valid JSON: %v", answer, err)
		}
		switch value.(type) {
		case map[string]any, []any:
			return value, nil
		default:
			return nil, apierrors.NewValidationf("%q is not a JSON array or object", answer)
		}
	default:
		return answer, nil
	}
}
