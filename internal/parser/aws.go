package parser

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/yildizm/glancelog/internal/common"
)

var (
	elbMatchRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d+Z \S+ \d+\.\d+\.\d+\.\d+:\d+ (\d+\.\d+\.\d+\.\d+:\d+|-) [\d\.-]+ [\d\.-]+ [\d\.-]+ \d+ `)
	albMatchRe = regexp.MustCompile(`^(http|https|h2|grpc|ws|wss) \d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d+Z `)
)

// AWSELBDialect parses classic load balancer access logs:
// timestamp elb client:port backend:port req_time backend_time resp_time elb_status backend_status ...
type AWSELBDialect struct {
	baseDialect
}

// NewAWSELBDialect creates a classic ELB dialect
func NewAWSELBDialect(now func() time.Time) *AWSELBDialect {
	return &AWSELBDialect{baseDialect{format: common.FormatAWSELB, now: now}}
}

func (d *AWSELBDialect) CanParse(line string) bool {
	return elbMatchRe.MatchString(line)
}

func (d *AWSELBDialect) TryParse(line string) (*common.LogEntry, bool) {
	parts := strings.Fields(line)
	if len(parts) < 13 {
		return nil, false
	}
	ts, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return nil, false
	}

	request := quoted(line)
	msg := fmt.Sprintf("%s elb_status=%s backend_status=%s", request, parts[7], parts[8])
	return d.entry(line, ts, hostOf(parts[2]), requestMethod(request, "HTTP"), msg), true
}

// AWSALBDialect parses application load balancer access logs:
// type timestamp elb client:port target:port req_time target_time resp_time elb_status target_status ...
type AWSALBDialect struct {
	baseDialect
}

// NewAWSALBDialect creates an ALB dialect
func NewAWSALBDialect(now func() time.Time) *AWSALBDialect {
	return &AWSALBDialect{baseDialect{format: common.FormatAWSALB, now: now}}
}

func (d *AWSALBDialect) CanParse(line string) bool {
	return albMatchRe.MatchString(line)
}

func (d *AWSALBDialect) TryParse(line string) (*common.LogEntry, bool) {
	parts := strings.Fields(line)
	if len(parts) < 15 {
		return nil, false
	}
	ts, err := time.Parse(time.RFC3339Nano, parts[1])
	if err != nil {
		return nil, false
	}

	protocol := parts[0]
	request := quoted(line)
	msg := fmt.Sprintf("%s elb_status=%s target_status=%s protocol=%s", request, parts[8], parts[9], protocol)
	return d.entry(line, ts, hostOf(parts[3]), requestMethod(request, protocol), msg), true
}
