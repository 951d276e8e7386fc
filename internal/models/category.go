package models

// MaxCategories is how many categories a single prompt may carry.
const MaxCategories = 4

// Categories is the catalog offered to submitters. Stored prompts are not validated
// against it, so older rows may carry names that have since been dropped.
var Categories = []string{
	".cursorrules",
	"Angular",
	"Anthropic(Claude)",
	"AutoHotkey",
	"Backend",
	"Bolt.new",
	"C#",
	"C++",
	"ChatGPT",
	"Codeium",
	"Convex",
	"Creatr",
	"Cursor",
	"Database",
	"Deepseek",
	"Devin",
	"Django",
	"Expo",
	"Express.js",
	"Flutter",
	"Functional",
	"Github Gopilot",
	"Go",
	"Guidelines Doc",
	"HTMX",
	"JavaScript",
	"Jest",
	"Laravel",
	"Loveable",
	"MagicUI",
	"NextJS",
	"Novo Elements",
	"NuxtJS",
	"Openai",
	"Other",
	"Perplexity",
	"Prompt",
	"Python",
	"Radix UI",
	"React",
	"Readme",
	"Replit",
	"Requirements Doc",
	"Ruby on Rails",
	"Rust",
	"Shadcn UI",
	"ShipFast",
	"Solidity",
	"Structure Doc",
	"Supabase",
	"SvelteKit",
	"SwiftUI",
	"TabNine",
	"Tailwind",
	"TanStack",
	"trae",
	"Trickle",
	"Typescript",
	"v0",
	"Vue",
	"Wails.io",
	"Windsurf",
}
