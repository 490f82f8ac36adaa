package panel

import (
    "bytes"
    "encoding/json"
    "fmt"
    "io"
    "regexp"

    "visibility/internal/domain"
)

var percentPattern = regexp.MustCompile(`(\d+)%`)

// ExtractPercentage returns the first run of digits directly followed by '%'.
func ExtractPercentage(text string) (string, bool) {
    m := percentPattern.FindStringSubmatch(text)
    if m == nil {
        return "", false
    }
    return m[1], true
}

// View is everything the panel renders.
type View struct {
    State          State
    ButtonLabel    string
    ButtonDisabled bool
    ButtonLoading  bool
    Identity       *domain.ShopIdentity
    Error          string
    Percentage     string // empty when no percentage was found
    Output         string
}

// Build derives a View from state alone.
func Build(state State, ident *domain.ShopIdentity, res *domain.ScoreResult, err error) View {
    v := View{State: state, Identity: ident}
    switch {
    case ident == nil:
        v.ButtonLabel, v.ButtonDisabled = "Loading shop…", true
    case state == ScoreLoading:
        v.ButtonLabel, v.ButtonDisabled, v.ButtonLoading = "Calculate Visibility Score", true, true
    default:
        v.ButtonLabel = "Calculate Visibility Score"
    }
    if err != nil {
        v.Error = err.Error()
    }
    if res != nil {
        if out, ok := res.Output(); ok {
            v.Output = out
        } else {
            v.Output = pretty(res.Raw)
        }
        v.Percentage, _ = ExtractPercentage(v.Output)
    }
    return v
}

func pretty(raw json.RawMessage) string {
    var buf bytes.Buffer
    if err := json.Indent(&buf, raw, "", "  "); err != nil {
        return string(raw)
    }
    return buf.String()
}

// Render writes a plain-text rendition of v.
func Render(w io.Writer, v View) error {
    var buf bytes.Buffer
    buf.WriteString("AI Visibility Score\n\n")
    if v.Identity != nil {
        fmt.Fprintf(&buf, "Shop:    %s\nBrand:   %s\nWebsite: %s\n\n", v.Identity.ShopDomain, v.Identity.BrandName, v.Identity.WebsiteURL)
    }
    label := v.ButtonLabel
    if v.ButtonLoading {
        label += " (loading)"
    } else if v.ButtonDisabled {
        label += " (disabled)"
    }
    fmt.Fprintf(&buf, "[ %s ]\n", label)
    if v.Error != "" {
        fmt.Fprintf(&buf, "\nError: %s\n", v.Error)
    }
    if v.Percentage != "" {
        fmt.Fprintf(&buf, "\nYour AI Visibility Score: %s%%\n", v.Percentage)
    }
    if v.Output != "" {
        fmt.Fprintf(&buf, "\n%s\n", v.Output)
    }
    _, err := w.Write(buf.Bytes())
    return err
}
