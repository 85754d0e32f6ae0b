package zaobao

import "strings"

// EmptyNewsPolicy decides what happens when the news field is present
// but holds no items. The upstream variants disagree here, so it is a
// deployment choice rather than a constant.
type EmptyNewsPolicy string

const (
	// EmptyNewsPlaceholder substitutes PlaceholderNoNews and renders
	// the rest of the brief.
	EmptyNewsPlaceholder EmptyNewsPolicy = "placeholder"
	// EmptyNewsFail treats an empty list like a missing field.
	EmptyNewsFail EmptyNewsPolicy = "fail"
)

// RenderOptions controls presentation. The zero value renders bare news
// lines with the placeholder policy, matching the original deployment.
type RenderOptions struct {
	// Bullet is prepended to every news line. Empty means bare lines.
	Bullet string
	// EmptyNewsPolicy defaults to EmptyNewsPlaceholder.
	EmptyNewsPolicy EmptyNewsPolicy
}

// Render assembles the briefing text. The layout is stable output:
//
//	【每日早报】
//	今天是 {date}
//	{news item per line, optionally bullet-prefixed}
//	{weiyu}
//
// followed by a blank line and 音频链接: {url} when audio is present.
func Render(p *Payload, opts RenderOptions) (string, *FetchError) {
	newsLines, ferr := newsSection(p.News, opts)
	if ferr != nil {
		return "", ferr
	}

	lines := make([]string, 0, len(newsLines)+3)
	lines = append(lines, "【每日早报】")
	lines = append(lines, "今天是 "+p.Date)
	lines = append(lines, newsLines...)
	lines = append(lines, p.Weiyu)

	out := strings.Join(lines, "\n")
	if p.Audio != nil && *p.Audio != "" {
		out += "\n\n音频链接: " + *p.Audio
	}
	return out, nil
}

func newsSection(news NewsList, opts RenderOptions) ([]string, *FetchError) {
	if news.Invalid {
		return []string{PlaceholderNoNews}, nil
	}

	if len(news.Items) == 0 {
		if opts.EmptyNewsPolicy == EmptyNewsFail {
			return nil, missingFieldError("news")
		}
		return []string{PlaceholderNoNews}, nil
	}

	if opts.Bullet == "" {
		return news.Items, nil
	}

	lines := make([]string, len(news.Items))
	for i, item := range news.Items {
		lines[i] = opts.Bullet + item
	}
	return lines, nil
}
