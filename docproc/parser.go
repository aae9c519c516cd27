// Package docproc turns course documents into catalog metadata and
// searchable content chunks. A course document starts with a metadata
// header (title, link, instructor), followed by lesson sections marked
// by "Lesson N: title" lines.
package docproc

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/mgryszko/starting-ragchatbot-codebase/store"
)

var lessonMarker = regexp.MustCompile(`^Lesson\s+(\d+):\s*(.*)$`)

// Processor parses course documents into a Course plus its chunks.
type Processor struct {
	chunker *Chunker
}

func NewProcessor(config ChunkerConfig) *Processor {
	return &Processor{chunker: NewChunker(config)}
}

// ParseCourseDocument reads a course document and returns its metadata
// and content chunks. Chunk indexes are sequential across the whole
// document, and the first chunk of every lesson carries a course/lesson
// context prefix so it stays attributable after retrieval.
func (p *Processor) ParseCourseDocument(path string) (*store.Course, []store.CourseChunk, error) {
	text, err := extractText(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to extract text from %s: %w", filepath.Base(path), err)
	}

	lines := strings.Split(text, "\n")
	course, bodyStart := parseHeader(lines, path)

	chunks := p.chunkLessons(course, lines[bodyStart:])
	return course, chunks, nil
}

// parseHeader reads the "Course Title:", "Course Link:" and
// "Course Instructor:" lines from the top of the document. Missing
// titles fall back to the file name.
func parseHeader(lines []string, path string) (*store.Course, int) {
	course := &store.Course{}
	i := 0

	for ; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			if course.Title != "" || course.Link != "" || course.Instructor != "" {
				i++
				break
			}
			continue
		}

		switch {
		case strings.HasPrefix(line, "Course Title:"):
			course.Title = strings.TrimSpace(strings.TrimPrefix(line, "Course Title:"))
		case strings.HasPrefix(line, "Course Link:"):
			course.Link = strings.TrimSpace(strings.TrimPrefix(line, "Course Link:"))
		case strings.HasPrefix(line, "Course Instructor:"):
			course.Instructor = strings.TrimSpace(strings.TrimPrefix(line, "Course Instructor:"))
		default:
			// first non-header line ends the header
			if course.Title == "" {
				course.Title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			}
			return course, i
		}
	}

	if course.Title == "" {
		course.Title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return course, i
}

// lessonSection is a parsed slice of the document body.
type lessonSection struct {
	number  *int
	content []string
}

// chunkLessons splits the body at lesson markers, records lesson
// metadata on the course, and chunks each section's content.
func (p *Processor) chunkLessons(course *store.Course, lines []string) []store.CourseChunk {
	var sections []lessonSection
	current := lessonSection{}

	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])

		if match := lessonMarker.FindStringSubmatch(line); match != nil {
			if len(current.content) > 0 || current.number != nil {
				sections = append(sections, current)
			}

			number, _ := strconv.Atoi(match[1])
			lesson := store.Lesson{Number: number, Title: strings.TrimSpace(match[2])}

			// an optional "Lesson Link:" line directly follows the marker
			if i+1 < len(lines) {
				next := strings.TrimSpace(lines[i+1])
				if strings.HasPrefix(next, "Lesson Link:") {
					lesson.Link = strings.TrimSpace(strings.TrimPrefix(next, "Lesson Link:"))
					i++
				}
			}

			course.Lessons = append(course.Lessons, lesson)
			current = lessonSection{number: &number}
			continue
		}

		if line != "" {
			current.content = append(current.content, line)
		}
	}
	if len(current.content) > 0 || current.number != nil {
		sections = append(sections, current)
	}

	var chunks []store.CourseChunk
	index := 0
	for _, section := range sections {
		text := strings.Join(section.content, " ")
		for chunkNum, content := range p.chunker.Chunk(text) {
			if chunkNum == 0 {
				if section.number != nil {
					content = fmt.Sprintf("Course %s Lesson %d content: %s", course.Title, *section.number, content)
				} else {
					content = fmt.Sprintf("Course %s content: %s", course.Title, content)
				}
			}
			chunks = append(chunks, store.CourseChunk{
				Content:      content,
				CourseTitle:  course.Title,
				LessonNumber: section.number,
				ChunkIndex:   index,
			})
			index++
		}
	}

	return chunks
}
