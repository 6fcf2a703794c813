package mcpserver

// SummaryFormatContract describes the canonical summary artifact format
// that LLM consumers should expect when reading stored summaries.
const SummaryFormatContract = `# Lectio Summary Format Contract

Every summary artifact stored in a Lectio course library follows this
structure.

## Structure

` + "```" + `markdown
---
title: Reading title                # REQUIRED - document title or PDF stem
author: Author name                 # OPTIONAL - from PDF metadata
course: PSYCH101                    # OPTIONAL - detected course code
week: 3                             # OPTIONAL - week number within the course
date: 2026-02-08                    # REQUIRED - generation date (YYYY-MM-DD)
source: /path/to/reading.pdf        # path of the summarized PDF
---

## I. Syllabus Contextualization (1-2 min read)
...

## II. Core Thesis & Architecture (3-4 min read)
- **Central Argument**: One sentence thesis.
- **Key Terms**: term: definition, another term: definition
...

## III. Critical Tensions (2 min read)
...

## IV. Cross-Reading Synthesis (3-4 min read)
...

## V. Critical Questions (1-2 min read)
...
` + "```" + `

## Rules

1. **YAML frontmatter is mandatory.** The ` + "`" + `---` + "`" + ` fences are the first thing
   in the file.
2. **File names** end with ` + "`" + `_summary.md` + "`" + ` and live next to the source PDF
   inside the course folder.
3. **The Core Thesis section** carries the machine-readable metadata: the
   ` + "`" + `Central Argument` + "`" + ` line becomes the indexed thesis and the
   ` + "`" + `Key Terms` + "`" + ` line (format "term: definition") becomes the key concepts.
4. **Week numbers** come from the folder structure (e.g. ` + "`" + `Week 3/` + "`" + `) or the
   frontmatter; a summary without either is indexed as week "?".
5. **Master index files** (` + "`" + `<CODE>_master.md` + "`" + ` per course plus the global
   index) are derived from summaries. Never edit them by hand; they are
   rewritten wholesale on every update.
`
