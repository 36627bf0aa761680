package jobs

// Step identifies one named phase of backend processing, tracked
// independently for progress display.
type Step string

const (
	StepImage   Step = "image"
	StepMockups Step = "mockups"
	StepVideo   Step = "video"
	StepTexts   Step = "texts"
	StepPackage Step = "package"
)

// StepState tracks a single step's progress.
type StepState string

const (
	StepPending StepState = "pending"
	StepStarted StepState = "started"
	StepDone    StepState = "done"
)

// ParseStepState converts a wire value into a known StepState.
func ParseStepState(value string) (StepState, bool) {
	switch StepState(value) {
	case StepPending, StepStarted, StepDone:
		return StepState(value), true
	default:
		return "", false
	}
}

// StepsFor derives the ordered step sequence from an options snapshot. The
// base image step always comes first and the packaging step always last;
// optional steps appear in backend execution order.
func StepsFor(opts Options) []Step {
	steps := make([]Step, 0, 5)
	steps = append(steps, StepImage)
	if opts.Mockups {
		steps = append(steps, StepMockups)
	}
	if opts.Video {
		steps = append(steps, StepVideo)
	}
	if opts.Texts {
		steps = append(steps, StepTexts)
	}
	return append(steps, StepPackage)
}

// Label returns the human-readable step name used by the CLI.
func (s Step) Label() string {
	switch s {
	case StepImage:
		return "Image"
	case StepMockups:
		return "Mockups"
	case StepVideo:
		return "Video"
	case StepTexts:
		return "Texts"
	case StepPackage:
		return "Package"
	default:
		return string(s)
	}
}
