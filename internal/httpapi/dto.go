package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"

	"rollcall/internal/attendance"
	"rollcall/internal/classroom"
	"rollcall/internal/roster"
)

const dateLayout = "2006-01-02"

func classJSON(c classroom.Class) gin.H {
	return gin.H{
		"id":        c.ID,
		"code":      c.Code,
		"name":      c.Name,
		"section":   c.Section,
		"teacherId": c.TeacherID,
		"createdAt": c.CreatedAt,
	}
}

func scheduleJSON(s classroom.Schedule) gin.H {
	return gin.H{
		"id":        s.ID,
		"classId":   s.ClassID,
		"dayOfWeek": s.DayOfWeek,
		"startTime": s.StartTime,
		"endTime":   s.EndTime,
	}
}

func rescheduleJSON(rs classroom.Reschedule) gin.H {
	return gin.H{
		"id":            rs.ID,
		"classId":       rs.ClassID,
		"originalDate":  rs.OriginalDate.Format(dateLayout),
		"originalStart": rs.OriginalStart,
		"originalEnd":   rs.OriginalEnd,
		"newDate":       rs.NewDate.Format(dateLayout),
		"newStart":      rs.NewStart,
		"newEnd":        rs.NewEnd,
		"reason":        rs.Reason,
		"createdAt":     rs.CreatedAt,
	}
}

func studentJSON(st roster.Student) gin.H {
	return gin.H{
		"id":             st.ID,
		"universityRoll": st.UniversityRoll,
		"rollNo":         st.RollNo,
		"name":           st.Name,
		"email":          st.Email,
		"altEmail":       st.AltEmail,
		"photoUrl":       st.PhotoURL,
		"program":        st.Program,
		"section":        st.Section,
	}
}

func sessionJSON(s attendance.Session) gin.H {
	return gin.H{
		"id":                s.ID,
		"classId":           s.ClassID,
		"teacherId":         s.TeacherID,
		"date":              s.Date.Format(dateLayout),
		"processedImageUrl": s.ProcessedImageURL,
		"createdAt":         s.CreatedAt,
	}
}

func sessionWithStatusesJSON(sws attendance.SessionWithStatuses) gin.H {
	h := sessionJSON(sws.Session)
	h["statuses"] = sws.Statuses
	return h
}

func parseDate(s string) (time.Time, bool) {
	d, err := time.Parse(dateLayout, s)
	return d, err == nil
}
