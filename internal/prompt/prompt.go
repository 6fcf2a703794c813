// Package prompt builds the generation prompts for reading summaries.
package prompt

import (
	"fmt"
	"strings"

	"github.com/starford/lectio/internal/course"
	"github.com/starford/lectio/internal/models"
)

// maxReadingChars bounds how much of the extracted text goes into the
// prompt.
const maxReadingChars = 30000

// maxContextConcepts caps the concepts quoted per prior week.
const maxContextConcepts = 5

// SystemPrompt frames the model as an academic reading assistant.
const SystemPrompt = `You are an expert academic reading assistant with expertise in:
- Identifying central arguments and theoretical frameworks
- Extracting key concepts and definitions with precision
- Recognizing methodological approaches and their limitations
- Synthesizing across texts and disciplines
- Generating thought-provoking Socratic discussion questions
- Identifying empirical evidence (sample sizes, effect sizes, statistical methods)
- Surfacing dialectical tensions and counter-positions

Your summaries help students prepare for seminar discussions by focusing on critical engagement rather than passive comprehension. You prioritize:
1. First-principles analysis of underlying assumptions
2. Explicit connections between readings across weeks
3. Quantitative evidence where available (stats, n-sizes, methodologies)
4. Steelmanned opposing viewpoints
5. Verbatim quotes that capture theoretical precision

You make explicit connections between readings to build cumulative understanding across the semester.`

// BuildSummaryPrompt assembles the user prompt: course context, prior-week
// learning, the reading text, and the five-section output contract.
func BuildSummaryPrompt(text string, cctx course.Context, history []models.HistoryContextRecord) string {
	var b strings.Builder

	b.WriteString("You are an academic reading assistant. Generate a structured summary of the following academic text for a college-level course.\n\n")

	b.WriteString("CONTEXT:\n")
	fmt.Fprintf(&b, "- Course: %s - %s\n", orUnknown(cctx.CourseCode), cctx.CourseName)
	fmt.Fprintf(&b, "- Week/Module: %s%s", weekModule(cctx), pairedLine(cctx.OtherReadings))
	b.WriteString(historySection(history))
	b.WriteString("\n\n")

	b.WriteString("READING TEXT:\n")
	if len(text) > maxReadingChars {
		text = text[:maxReadingChars]
	}
	b.WriteString(text)
	b.WriteString("\n\n")

	b.WriteString("OUTPUT REQUIREMENTS:\n")
	b.WriteString("Generate a markdown-formatted summary with EXACTLY these five sections. Follow this structure precisely:\n\n")

	b.WriteString("## I. Syllabus Contextualization (1-2 min read)\n")
	fmt.Fprintf(&b, "- **Course**: %s\n", orUnknown(cctx.CourseCode))
	fmt.Fprintf(&b, "- **Week/Module**: %s\n", weekModule(cctx))
	b.WriteString("- **Theme**: [Extract or infer the module theme from the reading]\n")
	fmt.Fprintf(&b, "- **Paired Readings**: [%s]\n", pairedList(cctx.OtherReadings))
	b.WriteString("- **Course Objective**: [Infer how this reading serves course learning goals]\n")
	b.WriteString("- **Discussion Questions**: [Extract if provided in reading, otherwise note \"Not provided in reading\"]\n\n")

	b.WriteString("## II. Core Thesis & Architecture (3-4 min read)\n")
	b.WriteString("- **Central Argument**: [One clear sentence stating the thesis]\n")
	b.WriteString("- **Key Terms**: [List 5-7 important terms with precise definitions in format \"term: definition\". Preserve author's exact terminology.]\n")
	b.WriteString("- **Framework/Method**: [Describe the theoretical framework or research methodology used]\n")
	b.WriteString("- **Evidence Base**: [Be specific: n=?, methodology type, effect sizes if reported, limitations acknowledged by author. If purely theoretical, describe the logical structure and types of evidence marshaled. If no empirical evidence, state this explicitly.]\n")
	b.WriteString("- **Critical Quotes**: [Include 3-4 verbatim quotes that capture the core thesis, a key theoretical move, and the most precise definition of a central concept. Include page numbers where detectable. Do not paraphrase, use exact wording.]\n\n")

	b.WriteString("## III. Critical Tensions (2 min read)\n")
	b.WriteString("- **Internal Contradictions**: [Identify any contradictions or tensions within the text's argument]\n")
	b.WriteString("- **Counter-Positions**: [Provide the steelmanned opposing view. Name specific theorists, schools, or traditions if identifiable. Do not strawman.]\n")
	b.WriteString("- **Assumptions Under Scrutiny**: [What must be true for this argument to hold? What happens if those assumptions fail?]\n")
	b.WriteString("- **Unresolved Questions**: [What questions does the reading raise but not fully answer?]\n")
	b.WriteString("- **Most Contested Claim**: [Quote the most debatable assertion verbatim, with page number if detectable]\n\n")

	b.WriteString("## IV. Cross-Reading Synthesis (3-4 min read)\n")
	b.WriteString(synthesisInstructions(len(history) > 0))
	b.WriteString("\n\n")

	b.WriteString("## V. Critical Questions (1-2 min read)\n")
	b.WriteString("[Generate 3-5 Socratic questions that provoke genuine uncertainty and critical engagement. Prioritize questions that would generate genuine disagreement in seminar; at least one should be unanswerable from the text alone. Do NOT force question types that don't fit the reading.]\n\n")

	b.WriteString("CRITICAL REQUIREMENTS:\n")
	b.WriteString("- Use markdown formatting throughout\n")
	b.WriteString("- Target total reading time: **10-12 minutes**\n")
	b.WriteString("- Include page numbers for quotes where detectable in the text\n")
	b.WriteString("- Be specific and evidence-based, never fabricate information not in the text\n")
	b.WriteString("- Preserve author's precise terminology\n")
	b.WriteString("- When statistics are present, report them exactly\n")
	b.WriteString("- Quotes must be verbatim, not paraphrased\n")
	b.WriteString(historicalReminder(len(history)))

	return b.String()
}

// historySection formats the prior weeks' learning block.
func historySection(history []models.HistoryContextRecord) string {
	if len(history) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n\nPREVIOUS WEEKS' LEARNING:")
	for _, h := range history {
		fmt.Fprintf(&b, "\n\nWeek %s - %q by %s", weekLabel(h.Week), orDefault(h.Title, "Unknown"), orDefault(h.Author, "Unknown"))
		if h.Thesis != "" {
			fmt.Fprintf(&b, "\n- Core Thesis: %s", h.Thesis)
		}
		if len(h.KeyConcepts) > 0 {
			concepts := h.KeyConcepts
			if len(concepts) > maxContextConcepts {
				concepts = concepts[:maxContextConcepts]
			}
			fmt.Fprintf(&b, "\n- Key Concepts: %s", strings.Join(concepts, ", "))
		}
	}
	return b.String()
}

func synthesisInstructions(hasHistory bool) string {
	if !hasHistory {
		return `- **Connections to Other Readings This Week**: [How does this relate to other readings assigned this week?]
- **Course Theme Development**: [How does this reading introduce or develop key course themes?]
- **Transdisciplinary Bridges**: [Note connections to adjacent disciplines only if genuinely present. Do not force.]`
	}
	return `- **Connections to This Week's Readings**: [How does this relate to other readings assigned this week?]
- **Building on Previous Weeks**: [IMPORTANT: Make explicit connections to concepts from previous weeks. Reference specific ideas, terms, or frameworks from earlier readings and explain how this reading builds upon, challenges, or extends them. Use specific week references.]
- **Course Theme Progression**: [How does this advance or challenge themes developed in earlier weeks?]
- **Transdisciplinary Bridges**: [Note connections to adjacent disciplines only if genuinely present. Do not force.]

*Note: This section should explicitly reference concepts from previous weeks to demonstrate cumulative learning.*`
}

func historicalReminder(weeks int) string {
	if weeks == 0 {
		return ""
	}
	return fmt.Sprintf("\n\n**IMPORTANT**: You have been provided with context from %d previous week(s) of readings. In Section IV (Cross-Reading Synthesis), you MUST make explicit connections to concepts, frameworks, and ideas from those earlier readings. Reference specific weeks and show how this reading relates to the cumulative learning trajectory of the course.", weeks)
}

func weekModule(cctx course.Context) string {
	s := "Week " + weekLabel(cctx.Week)
	if cctx.Module != "" {
		s += " - " + cctx.Module
	}
	return s
}

func weekLabel(week int) string {
	if week <= 0 {
		return "?"
	}
	return fmt.Sprintf("%d", week)
}

func pairedLine(readings []string) string {
	if len(readings) == 0 {
		return ""
	}
	return "\n- Paired Readings this week: " + strings.Join(readings, ", ")
}

func pairedList(readings []string) string {
	if len(readings) == 0 {
		return "None detected"
	}
	return strings.Join(readings, ", ")
}

func orUnknown(s string) string { return orDefault(s, "Unknown") }

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
