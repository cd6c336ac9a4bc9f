package ai

const classifyPrompt = `You are a text classifier. Decide whether the user's text is a task, a note, or both.

Classification rules:
- task: contains an actionable item. Meetings, calls, reminders, errands, deadlines, to-dos, assignments, goals.
- note: purely informational. Ideas, observations, facts, references, documentation, things to remember.
- both: the text carries an actionable item AND informational content worth keeping on its own.
  It will be stored as two separate records, so do not pick "both" for a plain task with details.

Examples:
"Call the dentist tomorrow at 10" -> {"kind":"task","confidence":0.95}
"The office Wi-Fi password is guest-2024" -> {"kind":"note","confidence":0.93}
"Meeting with Anna on Friday. She mentioned the budget is capped at 40k and legal must sign off" -> {"kind":"both","confidence":0.81}
"Купить молоко" -> {"kind":"task","confidence":0.96}
"Идея: сделать тёмную тему для приложения" -> {"kind":"note","confidence":0.74}

Output ONLY one JSON object, no other text:
{"kind": "task" | "note" | "both", "confidence": number between 0 and 1}`

const structureTaskPrompt = `Transform the user's text into a clear, actionable task.

Rules:
- title: short, action-oriented and specific. Keep the user's language.
- content: context and details from the text. Empty string if there is nothing beyond the title.
- priority: LOW (routine), MEDIUM (normal), HIGH (urgent or important).
- difficulty: integer 1-5 (1 = trivial, 5 = very complex).
- Do not invent facts that are not in the text.

Output ONLY one JSON object, no other text:
{"title": "...", "content": "...", "priority": "LOW" | "MEDIUM" | "HIGH", "difficulty": 1-5}`

const structureNotePrompt = `Transform the user's text into a well-structured note.

Rules:
- title: concise and descriptive. Keep the user's language.
- content: preserve all important information, organized logically (short paragraphs or "- " bullet lines).
- Keep the original meaning and context. Do not add information.

Output ONLY one JSON object, no other text:
{"title": "...", "content": "..."}`

const taskCategoriesPrompt = `You extract categories (keywords) for a task description.
Return 2-5 short, general, lowercase categories in English, for example:
"work", "meeting", "finance", "health", "project", "learning", "personal", "shopping", "deadline", "call", "email".

Output ONLY a JSON array of strings, no other text.`

const noteCategoriesPrompt = `You extract categories (keywords) for a note.
Return 2-5 short, general, lowercase categories in English, for example:
"work", "ideas", "learning", "personal", "project", "reference", "health", "finance", "travel", "shopping".

Output ONLY a JSON array of strings, no other text.`

const dueTimePrompt = `You find the deadline or scheduled time in the user's text. The text may be in English or Russian.

The input has two lines: "reference_instant:" is the current date and time (ISO 8601, with weekday),
"text:" is the user's text. Resolve relative expressions against the reference instant:
"today"/"сегодня", "tomorrow"/"завтра", "day after tomorrow"/"послезавтра", "in 3 days"/"через 3 дня",
"next week"/"на следующей неделе" (Monday of next week), weekday names such as "Friday"/"пятница"/"в пятницу"
(the nearest such day on or after the reference date; if it is today and no time is given, use today),
"by the end of the month"/"до конца месяца" (last day of the month), explicit dates like "June 21", "21.06", "21 июня".

Rules:
- date: the calendar date as "YYYY-MM-DD", or null if the text gives no date.
- time: the time of day as 24-hour "HH:MM", or null if the text gives no time. "evening"/"вечером" = "18:00",
  "morning"/"утром" = "09:00", "noon"/"в обед" = "12:00".
- If the text expresses no deadline or schedule at all, both are null.
- Never invent a deadline.

Output ONLY one JSON object, no other text:
{"date": "YYYY-MM-DD" | null, "time": "HH:MM" | null}`

const stepsPrompt = `Break the task into a short ordered list of concrete sub-steps (2-7 steps).
Each step is one short imperative sentence in the language of the task.
If the task is a single trivial action, return an empty array.

Output ONLY a JSON array of strings, no other text.`

const difficultyPrompt = `Rate how difficult the task is on a scale from 1 to 5:
1 = trivial (minutes), 2 = easy, 3 = moderate (about an hour or some planning), 4 = hard (several hours or coordination),
5 = very complex (days, many unknowns).

Output ONLY the single digit, nothing else.`
