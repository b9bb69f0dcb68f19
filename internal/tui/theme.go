package tui

import "github.com/charmbracelet/lipgloss"

var (
	// Core palette
	Green       = lipgloss.Color("#00FF41")
	BrightGreen = lipgloss.Color("#39FF14")
	MedGreen    = lipgloss.Color("#00C832")
	DarkGreen   = lipgloss.Color("#008F11")
	DimGreen    = lipgloss.Color("#003B00")
	Cyan        = lipgloss.Color("#00D4AA")
	Amber       = lipgloss.Color("#FFB000")
	Red         = lipgloss.Color("#FF4136")
	Black       = lipgloss.Color("#0D0208")
	MidGray     = lipgloss.Color("#3a3a4e")
	LightGray   = lipgloss.Color("#aaaaaa")
	White       = lipgloss.Color("#e0e0e0")

	// Status bar
	StatusBarStyle = lipgloss.NewStyle().
			Background(DarkGreen).
			Foreground(Black).
			Bold(true).
			Padding(0, 1)

	StatusModelStyle = lipgloss.NewStyle().
				Background(Green).
				Foreground(Black).
				Bold(true).
				Padding(0, 1)

	// Low-resource warnings
	WarningStyle = lipgloss.NewStyle().
			Foreground(Amber).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(BrightGreen)

	// User messages
	UserLabelStyle = lipgloss.NewStyle().
			Foreground(BrightGreen).
			Bold(true)

	UserMsgStyle = lipgloss.NewStyle().
			Foreground(Green)

	// Model responses
	ModelLabelStyle = lipgloss.NewStyle().
			Foreground(Cyan).
			Bold(true)

	ModelMsgStyle = lipgloss.NewStyle().
			Foreground(White)

	// Benchmark progress
	BenchLabelStyle = lipgloss.NewStyle().
			Foreground(MedGreen).
			Bold(true)

	BenchLineStyle = lipgloss.NewStyle().
			Foreground(LightGray)

	// System notices
	SystemMsgStyle = lipgloss.NewStyle().
			Foreground(DarkGreen).
			Italic(true)

	// Input
	InputBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(DarkGreen).
			Padding(0, 1)

	// Spinner
	SpinnerStyle = lipgloss.NewStyle().
			Foreground(BrightGreen)

	// Banner
	BannerStyle = lipgloss.NewStyle().
			Foreground(Green).
			Bold(true)

	// Separator
	SeparatorStyle = lipgloss.NewStyle().
			Foreground(DimGreen)

	// Error
	ErrorStyle = lipgloss.NewStyle().
			Foreground(Red).
			Bold(true)

	// Help text
	HelpStyle = lipgloss.NewStyle().
			Foreground(DimGreen)

	// List popups
	ListBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(DarkGreen).
			Padding(0, 1)

	ListTitleStyle = lipgloss.NewStyle().
			Foreground(Green).
			Bold(true).
			MarginLeft(2)
)

const Banner = `
   █████╗ ██╗      █████╗  ██████╗██████╗ ██╗████████╗██╗   ██╗
  ██╔══██╗██║     ██╔══██╗██╔════╝██╔══██╗██║╚══██╔══╝╚██╗ ██╔╝
  ███████║██║     ███████║██║     ██████╔╝██║   ██║    ╚████╔╝
  ██╔══██║██║     ██╔══██║██║     ██╔══██╗██║   ██║     ╚██╔╝
  ██║  ██║███████╗██║  ██║╚██████╗██║  ██║██║   ██║      ██║
  ╚═╝  ╚═╝╚══════╝╚═╝  ╚═╝ ╚═════╝╚═╝  ╚═╝╚═╝   ╚═╝      ╚═╝
`
