// internal/assistant/persona/signals.go
package persona

import (
	"regexp"

	"shop-assistant/internal/models"
)

// Signal is one persona's declarative evidence set. Keywords are matched in
// the current message (half strength) and recent history (fixed 0.2 each);
// patterns only in the current message at full strength. Weight is the
// persona-specific multiplier in [1.0, 1.5].
type Signal struct {
	Keywords []string
	Patterns []*regexp.Regexp
	Weight   float64
}

// signalTable is the whole inference model. One pure scoring function
// consumes it; there are no ad hoc string checks at call sites.
var signalTable = map[models.Persona]Signal{
	models.PersonaBudgetConscious: {
		Keywords: []string{"cheap", "budget", "affordable", "deal", "discount", "price", "expensive", "save"},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)under \$?\d+`),
			regexp.MustCompile(`(?i)(can't|cannot|don't want to) (afford|spend)`),
			regexp.MustCompile(`(?i)best (value|bang for)`),
		},
		Weight: 1.2,
	},
	models.PersonaSpecMaximizer: {
		Keywords: []string{"specs", "megapixel", "sensor", "bitrate", "fps", "raw", "benchmark", "dynamic range", "codec"},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\d+\s?(mp|fps|mm|bit)`),
			regexp.MustCompile(`(?i)(full[- ]frame|aps-c|micro four thirds)`),
			regexp.MustCompile(`(?i)compare(d)? (it |them )?(to|with|against)`),
		},
		Weight: 1.3,
	},
	models.PersonaGiftBuyer: {
		Keywords: []string{"gift", "present", "birthday", "anniversary", "christmas", "surprise", "wrap"},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)for (my|a) (wife|husband|son|daughter|mom|dad|friend|partner)`),
			regexp.MustCompile(`(?i)(he|she|they) (likes?|loves?|wants?)`),
		},
		Weight: 1.4,
	},
	models.PersonaAnxiousFirstTimer: {
		Keywords: []string{"beginner", "confused", "overwhelmed", "worried", "nervous", "first time", "mistake", "return policy", "complicated"},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(never|don't know|no idea) (used|owned|anything about|where to start)`),
			regexp.MustCompile(`(?i)is it (hard|difficult|easy) to`),
			regexp.MustCompile(`(?i)what if (i|it)`),
		},
		Weight: 1.5,
	},
	models.PersonaProfessionalUpgrade: {
		Keywords: []string{"upgrade", "client", "shoot", "workflow", "studio", "gig", "work", "professional", "backup body"},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(upgrading|moving) from (my|a|an) \w+`),
			regexp.MustCompile(`(?i)for (weddings|events|commercial|clients)`),
			regexp.MustCompile(`(?i)i (currently )?(shoot|use) (a|an|the) \w+`),
		},
		Weight: 1.1,
	},
	models.PersonaTrendFollower: {
		Keywords: []string{"trending", "viral", "tiktok", "instagram", "youtube", "influencer", "popular", "everyone", "aesthetic"},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(saw|seen) (it|this|one) on (tiktok|instagram|youtube|reels)`),
			regexp.MustCompile(`(?i)what (do )?(creators|influencers|youtubers) use`),
		},
		Weight: 1.0,
	},
}
